package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// ShipmentService layers the lifecycle rules over the storage contract:
// tracking-event deduplication, delivered-time capture and plain field
// merges all funnel through here.
type ShipmentService struct {
	store  ports.ShipmentStore
	logger *zap.Logger
}

// NewShipmentService creates a ShipmentService on top of the given store.
func NewShipmentService(store ports.ShipmentStore, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{store: store, logger: logger}
}

// Create persists a new shipment.
func (s *ShipmentService) Create(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	return s.store.AddShipment(ctx, shipment)
}

// Get looks up one shipment by tracking id; (nil, nil) on miss.
func (s *ShipmentService) Get(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	return s.store.FindByTrackingID(ctx, trackingID)
}

// GetMany returns the subset of shipments matching the given ids.
func (s *ShipmentService) GetMany(ctx context.Context, trackingIDs []string) ([]*domain.Shipment, error) {
	return s.store.FindByTrackingIDs(ctx, trackingIDs)
}

// List returns one page of shipments.
func (s *ShipmentService) List(ctx context.Context, query domain.ListQuery) (*domain.ShipmentPage, error) {
	return s.store.GetAllShipments(ctx, query)
}

// Delete removes a shipment, reporting whether one existed. Any audit
// trail of the deletion is the caller's job, recorded before calling.
func (s *ShipmentService) Delete(ctx context.Context, trackingID string) (bool, error) {
	return s.store.DeleteShipment(ctx, trackingID)
}

// Update applies a patch to a shipment. When the patch carries a status,
// location or description change, the incoming triple is compared against
// the most recent tracking event only: if any of the three differs, or
// the log is empty, a new event is appended and the shipment moves to its
// status; an identical triple is treated as a no-op repeat. The tail-only
// comparison is deliberate and must not grow into a full-history scan.
//
// Returns (nil, nil) when no shipment matches.
func (s *ShipmentService) Update(ctx context.Context, trackingID string, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	current, err := s.store.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, fmt.Errorf("loading shipment for update: %w", err)
	}
	if current == nil {
		return nil, nil
	}

	result := current

	if patch.HasTrackingChange() {
		status := current.Status
		if patch.Status != nil {
			status = *patch.Status
			if parsed, ok := domain.ParseStatus(string(status)); ok {
				status = parsed
			}
		}
		location := ""
		if patch.Location != nil {
			location = *patch.Location
		}
		description := ""
		if patch.Description != nil {
			description = *patch.Description
		}

		if domain.ShouldAppendEvent(current.LastEvent(), status, location, description) {
			updated, err := s.store.AppendTrackingEvent(ctx, trackingID, domain.TrackingEvent{
				Status:      status,
				Description: description,
				Location:    location,
				Completed:   status.IsCompleted(),
			})
			if err != nil {
				return nil, fmt.Errorf("appending tracking event: %w", err)
			}
			if updated == nil {
				return nil, nil
			}
			result = updated
			s.logger.Debug("tracking event appended",
				zap.String("tracking_id", result.TrackingID),
				zap.String("status", string(status)),
			)
		}
	}

	rest := *patch
	rest.Status, rest.Location, rest.Description = nil, nil, nil
	if !rest.IsEmpty() {
		updated, err := s.store.UpdateShipment(ctx, trackingID, &rest)
		if err != nil {
			return nil, fmt.Errorf("updating shipment: %w", err)
		}
		if updated == nil {
			return nil, nil
		}
		result = updated
	}

	return result, nil
}
