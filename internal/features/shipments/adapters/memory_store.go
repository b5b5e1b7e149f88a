package adapters

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// MemoryStore keeps shipments in an insertion-ordered in-process slice.
// Nothing survives a restart; it exists for ephemeral and test
// deployments. The mutex only keeps the slice safe under the race
// detector; concurrent writers to the same tracking id still race at the
// read-modify-write level, last write wins.
type MemoryStore struct {
	mu          sync.RWMutex
	shipments   []*domain.Shipment
	initialized bool
	logger      *zap.Logger
}

// NewMemoryStore creates an empty in-memory backend.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{logger: logger}
}

// Init marks the store ready. There is no resource to open, so a repeat
// call is a no-op like everywhere else.
func (m *MemoryStore) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	m.initialized = true
	m.logger.Info("memory storage initialized")
	return nil
}

// cloneShipment returns a normalized copy so callers never alias the
// store's internal record.
func cloneShipment(s *domain.Shipment) *domain.Shipment {
	if s == nil {
		return nil
	}
	c := *s
	c.Events = append([]domain.TrackingEvent(nil), s.Events...)
	return domain.Normalize(&c)
}

func (m *MemoryStore) findLocked(trackingID string) *domain.Shipment {
	id := domain.NormalizeTrackingID(trackingID)
	for _, s := range m.shipments {
		if domain.NormalizeTrackingID(s.TrackingID) == id {
			return s
		}
	}
	return nil
}

// FindByTrackingID implements ports.ShipmentStore.
func (m *MemoryStore) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneShipment(m.findLocked(trackingID)), nil
}

// FindByID resolves a shipment by its backend-native identifier.
func (m *MemoryStore) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shipments {
		if s.ID == id {
			return cloneShipment(s), nil
		}
	}
	return nil, nil
}

// FindByTrackingIDs implements ports.ShipmentStore.
func (m *MemoryStore) FindByTrackingIDs(ctx context.Context, trackingIDs []string) ([]*domain.Shipment, error) {
	wanted := make(map[string]struct{}, len(trackingIDs))
	for _, id := range trackingIDs {
		wanted[domain.NormalizeTrackingID(id)] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Shipment
	for _, s := range m.shipments {
		if _, ok := wanted[domain.NormalizeTrackingID(s.TrackingID)]; ok {
			result = append(result, cloneShipment(s))
		}
	}
	return result, nil
}

// GetAllShipments implements ports.ShipmentStore.
func (m *MemoryStore) GetAllShipments(ctx context.Context, query domain.ListQuery) (*domain.ShipmentPage, error) {
	q := query.Normalized()

	// Clone while still under the lock: sorting and paging must not touch
	// records a concurrent writer may be mutating.
	m.mu.RLock()
	var filtered []*domain.Shipment
	for _, s := range m.shipments {
		if q.Matches(s) {
			filtered = append(filtered, cloneShipment(s))
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	data := make([]*domain.Shipment, 0, end-start)
	data = append(data, filtered[start:end]...)

	return &domain.ShipmentPage{
		Data:       data,
		Pagination: domain.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// AddShipment implements ports.ShipmentStore.
func (m *MemoryStore) AddShipment(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	explicit := shipment != nil && shipment.TrackingID != ""
	if err := domain.PrepareNew(shipment, time.Now()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if explicit && m.findLocked(shipment.TrackingID) != nil {
		return nil, ports.ErrDuplicateTrackingID
	}
	if shipment.ID == "" {
		shipment.ID = uuid.NewString()
	}

	stored := cloneShipment(shipment)
	m.shipments = append(m.shipments, stored)

	m.logger.Debug("shipment added", zap.String("tracking_id", stored.TrackingID))
	return cloneShipment(stored), nil
}

// UpdateShipment implements ports.ShipmentStore.
func (m *MemoryStore) UpdateShipment(ctx context.Context, trackingID string, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.findLocked(trackingID)
	if s == nil {
		return nil, nil
	}
	patch.Apply(s, time.Now())
	return cloneShipment(s), nil
}

// AppendTrackingEvent implements ports.ShipmentStore.
func (m *MemoryStore) AppendTrackingEvent(ctx context.Context, trackingID string, event domain.TrackingEvent) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.findLocked(trackingID)
	if s == nil {
		return nil, nil
	}

	now := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	s.Events = append(s.Events, event)
	s.Status = event.Status
	if event.Status == domain.StatusDelivered && s.ActualDelivery == nil {
		delivered := now
		s.ActualDelivery = &delivered
	}
	s.UpdatedAt = now

	return cloneShipment(s), nil
}

// DeleteShipment implements ports.ShipmentStore.
func (m *MemoryStore) DeleteShipment(ctx context.Context, trackingID string) (bool, error) {
	id := domain.NormalizeTrackingID(trackingID)

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.shipments {
		if domain.NormalizeTrackingID(s.TrackingID) == id {
			m.shipments = append(m.shipments[:i], m.shipments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// GetStats implements ports.StatsProvider.
func (m *MemoryStore) GetStats(ctx context.Context) (*domain.StorageStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, s := range m.shipments {
		byStatus[string(s.Status)]++
	}
	return &domain.StorageStats{
		Backend:   "memory",
		Available: true,
		Total:     len(m.shipments),
		ByStatus:  byStatus,
	}, nil
}
