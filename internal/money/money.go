// Package money provides an exact fixed-point decimal currency value.
// Amounts are stored and exchanged as canonical two-decimal text, never
// as binary floats, so repeated buy/sell/deposit cycles cannot drift.
package money

import (
	"database/sql/driver"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// amountPattern accepts an optional leading dollar sign, a whole-dollar part,
// and up to two fraction digits. Surrounding whitespace is tolerated.
var amountPattern = regexp.MustCompile(`^\s*\$?(\d*)(\.?\d{0,2})\s*$`)

// ParseError reports input that could not be read as a currency amount.
type ParseError struct {
	Input string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("money: cannot parse %q as a currency amount", e.Input)
}

// Money is an immutable exact-decimal currency amount.
type Money struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

// Parse reads a currency amount such as "12", "12.5" or "$1000.50": an
// optional "$", dollars, and at most two cent digits. An empty dollar part
// defaults to zero dollars, an empty cent part to ".00".
func Parse(s string) (Money, error) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return Money{}, &ParseError{Input: s}
	}

	dollars, cents := m[1], m[2]
	if dollars == "" && (cents == "" || cents == ".") {
		return Money{}, &ParseError{Input: s}
	}
	if dollars == "" {
		dollars = "0"
	}
	if cents == "" || cents == "." {
		cents = ".00"
	}

	d, err := decimal.NewFromString(dollars + cents)
	if err != nil {
		return Money{}, &ParseError{Input: s}
	}
	return Money{d: d}, nil
}

// FromFloat converts a binary float to Money, rounding to the nearest cent.
// Intended for the quote-oracle boundary only; everything downstream of it
// stays exact.
func FromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f).Round(2)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// MulInt returns m multiplied by an integer share count.
func (m Money) MulInt(n int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(n))}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp compares m to other: -1 if less, 0 if equal, +1 if greater.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.d.Cmp(other.d) < 0
}

// Equal reports whether m and other are the same amount.
func (m Money) Equal(other Money) bool {
	return m.d.Cmp(other.d) == 0
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsPositive reports whether m is above zero.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// String returns the canonical two-decimal representation, e.g. "9500.00".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Value implements driver.Valuer, storing the canonical text form.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for TEXT columns written by Value.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.d = decimal.Decimal{}
		return nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("money: cannot scan %T into Money", value)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: invalid stored amount %q: %w", s, err)
	}
	m.d = d
	return nil
}

// MarshalJSON renders the canonical text form as a JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON reads a JSON string produced by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: invalid JSON amount %s: %w", data, err)
	}
	m.d = d
	return nil
}
