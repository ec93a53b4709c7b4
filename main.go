package main

import (
	"log"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/services"
)

// Provisions the database and wires the service layer: applies pending
// migrations, seeds the transaction type enum, and builds the app from the
// loaded configuration. Useful for fresh environments and deploy hooks;
// embedders hold onto the returned services.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbManager, err := database.NewManager(database.FromAppConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create database manager: %v", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	app := services.NewApp(dbManager.DB(), cfg)
	if err := app.Ledger.SeedTransactionTypes(); err != nil {
		log.Fatalf("Failed to seed transaction types: %v", err)
	}

	log.Println("Database is ready")
}
