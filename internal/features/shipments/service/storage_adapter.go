package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shipment-tracker/internal/core/config"
	"shipment-tracker/internal/features/shipments/adapters"
	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// BackendKind enumerates the storage backend variants. Selection happens
// exactly once at startup; after that every call goes straight to the
// chosen backend.
type BackendKind string

const (
	BackendMemory     BackendKind = "memory"
	BackendFile       BackendKind = "file"
	BackendDocumentDB BackendKind = "document-db"
)

// ParseBackendKind resolves the configured selector, defaulting to the
// document-database backend when the value is empty.
func ParseBackendKind(value string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(strings.TrimSpace(value))) {
	case BackendMemory:
		return BackendMemory, nil
	case BackendFile:
		return BackendFile, nil
	case BackendDocumentDB, "":
		return BackendDocumentDB, nil
	}
	return "", fmt.Errorf("unknown storage backend %q", value)
}

// Storage is the facade callers hold: one initialized backend plus stats
// forwarding. It performs no translation between backends; callers get
// whichever backend's normalized records.
type Storage struct {
	ports.ShipmentStore

	kind   BackendKind
	logger *zap.Logger
}

// Kind reports which backend the facade selected.
func (s *Storage) Kind() BackendKind {
	return s.kind
}

// GetStats forwards to the active backend, or answers with a default
// "not available" response when the backend has no stats capability.
func (s *Storage) GetStats(ctx context.Context) (*domain.StorageStats, error) {
	if provider, ok := s.ShipmentStore.(ports.StatsProvider); ok {
		return provider.GetStats(ctx)
	}
	return &domain.StorageStats{Backend: string(s.kind), Available: false}, nil
}

// NewStorage builds the backend selected by configuration, initializes
// it and wraps it in the facade.
func NewStorage(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Storage, error) {
	kind, err := ParseBackendKind(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	var store ports.ShipmentStore
	switch kind {
	case BackendMemory:
		store = adapters.NewMemoryStore(logger)
	case BackendFile:
		store = adapters.NewFileStore(cfg.Storage.FileDir, logger)
	case BackendDocumentDB:
		store = adapters.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database, logger)
	}

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing %s storage: %w", kind, err)
	}

	logger.Info("storage backend selected", zap.String("backend", string(kind)))
	return &Storage{ShipmentStore: store, kind: kind, logger: logger}, nil
}
