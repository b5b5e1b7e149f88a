package main

import (
	"context"
	"log"
	"time"

	"shipment-tracker/internal/core/cache"
	"shipment-tracker/internal/core/config"
	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/core/server"
	"shipment-tracker/internal/features/shipments/handler"
	"shipment-tracker/internal/features/shipments/service"

	"go.uber.org/zap"
)

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
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	ctx := context.Background()

	// Select and initialize the storage backend once; everything below
	// runs against this one instance.
	storage, err := service.NewStorage(ctx, cfg, l)
	if err != nil {
		l.Fatal("Storage initialization failed", zap.Error(err))
	}

	shipmentSvc := service.NewShipmentService(storage, l)
	bulkExec := service.NewBulkExecutor(storage, l)

	// Lookup cache is optional; a dead Redis only disables it.
	var lookupCache cache.Cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisAdapter(cfg.Cache.RedisURL)
		if err != nil {
			l.Warn("Lookup cache disabled", zap.Error(err))
		} else if err := redisCache.Ping(ctx); err != nil {
			l.Warn("Lookup cache unreachable, disabled", zap.Error(err))
		} else {
			lookupCache = redisCache
			l.Info("Lookup cache enabled")
		}
	}

	shipmentHdl := handler.NewShipmentHandler(
		shipmentSvc,
		bulkExec,
		storage,
		lookupCache,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)

	srv := server.New(cfg)
	shipmentHdl.Register(srv.App)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
