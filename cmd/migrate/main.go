package main

import (
	"context"
	"log"
	"os"

	"shipment-tracker/internal/core/config"
	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/features/shipments/adapters"
	"shipment-tracker/internal/features/shipments/migrate"

	"go.uber.org/zap"
)

// One-shot migration of every record from the file backend into the
// document-database backend. Safe to re-run: a non-empty destination
// aborts the import.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	ctx := context.Background()

	source := adapters.NewFileStore(cfg.Storage.FileDir, l)
	dest := adapters.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database, l)
	defer dest.Close(ctx)

	report, err := migrate.NewMigrator(source, dest, l).Run(ctx)
	if err != nil {
		l.Fatal("Migration failed", zap.Error(err))
	}

	switch {
	case report.SourceMissing:
		l.Info("Nothing to migrate: no source document")
	case report.ExistingInDestination > 0:
		l.Warn("Migration refused: destination is not empty",
			zap.Int("existing", report.ExistingInDestination))
		os.Exit(1)
	default:
		l.Info("Migration complete",
			zap.Int("migrated", report.Migrated),
			zap.Int("failed", report.Failed),
			zap.Int("total", report.Total),
		)
	}
}
