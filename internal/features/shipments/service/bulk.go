package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// Bulk operation names.
const (
	BulkUpdateStatus = "update-status"
	BulkDelete       = "delete"
)

var (
	// ErrBulkInvalidRequest is returned when the bulk request itself is
	// structurally broken: missing operation, empty id list, unknown
	// operation name.
	ErrBulkInvalidRequest = errors.New("invalid bulk request")
)

// BulkRequest applies one operation across many shipments. IDs may be
// tracking ids or backend-native ids.
type BulkRequest struct {
	Operation string                `json:"operation"`
	IDs       []string              `json:"ids"`
	Status    domain.ShipmentStatus `json:"status,omitempty"`
	Location  string                `json:"location,omitempty"`
	Note      string                `json:"note,omitempty"`
}

// BulkItemSuccess records one identifier the operation succeeded for.
type BulkItemSuccess struct {
	ID         string `json:"id"`
	TrackingID string `json:"trackingId"`
}

// BulkItemFailure records one identifier the operation failed for, with
// the reason. One item's failure never aborts the rest.
type BulkItemFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult tallies a bulk run.
type BulkResult struct {
	Successful []BulkItemSuccess `json:"successful"`
	Failed     []BulkItemFailure `json:"failed"`
	Total      int               `json:"total"`
}

// BulkExecutor runs bulk operations against the active backend. It holds
// no backend-specific logic: everything goes through the store contract.
type BulkExecutor struct {
	store  ports.ShipmentStore
	logger *zap.Logger
}

// NewBulkExecutor creates a BulkExecutor on top of the given store.
func NewBulkExecutor(store ports.ShipmentStore, logger *zap.Logger) *BulkExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkExecutor{store: store, logger: logger}
}

// validate rejects structurally invalid requests; per-item problems are
// reported in the result instead.
func (b *BulkExecutor) validate(req *BulkRequest) error {
	if req == nil || req.Operation == "" {
		return fmt.Errorf("%w: operation is required", ErrBulkInvalidRequest)
	}
	if len(req.IDs) == 0 {
		return fmt.Errorf("%w: ids must be a non-empty list", ErrBulkInvalidRequest)
	}
	switch req.Operation {
	case BulkUpdateStatus:
		status, ok := domain.ParseStatus(string(req.Status))
		if !ok {
			return fmt.Errorf("%w: unknown status %q", ErrBulkInvalidRequest, req.Status)
		}
		req.Status = status
	case BulkDelete:
	default:
		return fmt.Errorf("%w: unsupported operation %q", ErrBulkInvalidRequest, req.Operation)
	}
	return nil
}

// resolve finds a shipment by tracking id first, falling back to the
// backend-native id when the store supports that lookup.
func (b *BulkExecutor) resolve(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := b.store.FindByTrackingID(ctx, id)
	if err != nil || s != nil {
		return s, err
	}
	if byID, ok := b.store.(ports.IDLookup); ok {
		return byID.FindByID(ctx, id)
	}
	return nil, nil
}

// Execute runs the operation over every id independently, accumulating
// per-item outcomes. It returns an error only for structurally invalid
// input.
func (b *BulkExecutor) Execute(ctx context.Context, req *BulkRequest) (*BulkResult, error) {
	if err := b.validate(req); err != nil {
		return nil, err
	}

	result := &BulkResult{
		Successful: []BulkItemSuccess{},
		Failed:     []BulkItemFailure{},
		Total:      len(req.IDs),
	}

	for _, id := range req.IDs {
		shipment, err := b.resolve(ctx, id)
		if err != nil {
			result.Failed = append(result.Failed, BulkItemFailure{ID: id, Reason: err.Error()})
			continue
		}
		if shipment == nil {
			result.Failed = append(result.Failed, BulkItemFailure{ID: id, Reason: "Shipment not found"})
			continue
		}

		switch req.Operation {
		case BulkUpdateStatus:
			description := req.Note
			if description == "" {
				description = "Status updated in bulk"
			}
			_, err = b.store.AppendTrackingEvent(ctx, shipment.TrackingID, domain.TrackingEvent{
				Status:      req.Status,
				Description: description,
				Location:    req.Location,
				Completed:   req.Status.IsCompleted(),
			})
		case BulkDelete:
			var removed bool
			removed, err = b.store.DeleteShipment(ctx, shipment.TrackingID)
			if err == nil && !removed {
				err = errors.New("Shipment not found")
			}
		}

		if err != nil {
			result.Failed = append(result.Failed, BulkItemFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Successful = append(result.Successful, BulkItemSuccess{ID: id, TrackingID: shipment.TrackingID})
	}

	b.logger.Info("bulk operation finished",
		zap.String("operation", req.Operation),
		zap.Int("total", result.Total),
		zap.Int("succeeded", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}
