package ports

import (
	"context"
	"errors"

	"shipment-tracker/internal/features/shipments/domain"
)

var (
	// ErrDuplicateTrackingID is returned when adding a shipment whose
	// explicit tracking id already exists in the backend.
	ErrDuplicateTrackingID = errors.New("tracking id already exists")
	// ErrNotConfigured is returned by Init when required configuration
	// for the backend is missing.
	ErrNotConfigured = errors.New("storage backend is not configured")
	// ErrUnreachable is returned by Init when the underlying resource
	// cannot be reached or prepared.
	ErrUnreachable = errors.New("storage backend is unreachable")
)

// ShipmentStore is the contract every storage backend satisfies. Lookup
// misses are sentinels, not errors: FindByTrackingID and UpdateShipment
// return (nil, nil), DeleteShipment returns (false, nil). All records
// cross this boundary in the canonical normalized shape.
type ShipmentStore interface {
	// Init establishes readiness. Idempotent: calling it again once
	// initialized is a no-op.
	Init(ctx context.Context) error

	// FindByTrackingID looks up one shipment by tracking id,
	// case-insensitively.
	FindByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error)

	// FindByTrackingIDs returns the subset of shipments matching any of
	// the given ids. Unmatched ids are simply absent from the result.
	FindByTrackingIDs(ctx context.Context, trackingIDs []string) ([]*domain.Shipment, error)

	// GetAllShipments returns one page of shipments sorted by creation
	// time descending, filtered per the query.
	GetAllShipments(ctx context.Context, query domain.ListQuery) (*domain.ShipmentPage, error)

	// AddShipment persists a new shipment, assigning tracking id, status,
	// delivery estimate and initial event as needed. Returns
	// ErrDuplicateTrackingID when the explicit tracking id is taken.
	AddShipment(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error)

	// UpdateShipment merges the patch into the stored record and
	// refreshes its updatedAt.
	UpdateShipment(ctx context.Context, trackingID string, patch *domain.ShipmentPatch) (*domain.Shipment, error)

	// AppendTrackingEvent appends one event, moves the shipment to the
	// event's status and records the first delivery time when the status
	// newly becomes delivered.
	AppendTrackingEvent(ctx context.Context, trackingID string, event domain.TrackingEvent) (*domain.Shipment, error)

	// DeleteShipment hard-removes the record, reporting whether one was
	// removed. Deletion performs no audit logging of its own.
	DeleteShipment(ctx context.Context, trackingID string) (bool, error)
}

// StatsProvider is the optional diagnostics capability of a backend. The
// storage facade substitutes a default response for backends without it.
type StatsProvider interface {
	GetStats(ctx context.Context) (*domain.StorageStats, error)
}

// IDLookup is the optional capability of resolving a shipment by its
// backend-native identifier instead of the tracking id. The bulk executor
// uses it so callers may pass either form of id.
type IDLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
}
