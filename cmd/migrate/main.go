package main

import (
	"log"
	"log/slog"

	"github.com/DD-DeCaF/metabolic-ninja/cmd"
	"github.com/DD-DeCaF/metabolic-ninja/internal/config"
	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/telemetry"
)

// Applies pending schema migrations, then exits. The web deployment runs
// this in an init container so the schema is current before the api and the
// workers of the same build start.
func main() {
	cmd.LoadEnvFile()

	cfg, err := config.LoadMigrate()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	telemetry.SetupLogger(cfg.Settings)
	flushSentry, err := telemetry.SetupSentry(cfg.Settings)
	if err != nil {
		log.Fatalf("Failed to initialize error tracking: %v", err)
	}
	defer flushSentry()

	db, err := database.NewDatabase(cfg.Postgres.URL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		telemetry.CaptureError(err)
		// log.Fatalf does not run deferred functions.
		flushSentry()
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	slog.Info("database schema is up to date")
}
