// Package logger exposes the process-wide zap sugared logger. Trading
// operations log structured fields (user_id, symbol, amounts) through it;
// nothing else in the engine writes to stderr directly.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger once. "production" selects the JSON
// encoder; every other environment gets the console encoder.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		if env == "production" {
			base, err = zap.NewProduction()
		} else {
			base, err = zap.NewDevelopment()
		}

		if err != nil {
			// A process with no logger is worse than one logging nothing.
			base = zap.NewNop()
		}

		sugar = base.Sugar()
	})
}

// Get returns the global sugared logger, initializing a development one
// when Init was never called (tests, mostly).
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Deferred in every main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
