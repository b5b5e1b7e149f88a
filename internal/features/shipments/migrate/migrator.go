package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// Source is what the migrator needs from the file backend: a cheap
// existence probe that does not trigger seed-data creation, and a full
// read of every record.
type Source interface {
	DocumentExists() bool
	LoadAll(ctx context.Context) ([]*domain.Shipment, error)
}

// Connector is the optional destination capability of establishing the
// connection without bootstrapping sample data. The migrator prefers it
// over Init: a destination seeded during connection would trip the
// emptiness check below and the run would refuse to import anything.
type Connector interface {
	Connect(ctx context.Context) error
}

// ItemFailure records one record that could not be migrated.
type ItemFailure struct {
	TrackingID string `json:"trackingId"`
	Reason     string `json:"reason"`
}

// Report is the final tally of a migration run.
type Report struct {
	// SourceMissing is true when there was no source document at all;
	// the run exits cleanly with nothing to do.
	SourceMissing bool `json:"sourceMissing"`
	// ExistingInDestination is non-zero when the run was aborted because
	// the destination already held records. Refusing to import twice is
	// what makes the migration safe to re-run.
	ExistingInDestination int           `json:"existingInDestination"`
	Migrated              int           `json:"migrated"`
	Failed                int           `json:"failed"`
	Total                 int           `json:"total"`
	Failures              []ItemFailure `json:"failures,omitempty"`
}

// Migrator transfers every record from the file backend into the
// document-database backend, one shot, one direction. It is built
// entirely on the storage contract and holds no backend internals.
type Migrator struct {
	source Source
	dest   ports.ShipmentStore
	logger *zap.Logger
}

// NewMigrator creates a Migrator.
func NewMigrator(source Source, dest ports.ShipmentStore, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{source: source, dest: dest, logger: logger}
}

// Run executes the migration. The source-native identifier is discarded
// so the destination assigns its own; every other field, including the
// event log and timestamps, is preserved. Per-record failures are
// recorded without aborting the rest.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	if !m.source.DocumentExists() {
		m.logger.Info("no source document found, nothing to migrate")
		return &Report{SourceMissing: true}, nil
	}

	if c, ok := m.dest.(Connector); ok {
		if err := c.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting to destination: %w", err)
		}
	} else if err := m.dest.Init(ctx); err != nil {
		return nil, fmt.Errorf("connecting to destination: %w", err)
	}

	page, err := m.dest.GetAllShipments(ctx, domain.ListQuery{Page: 1, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("inspecting destination: %w", err)
	}
	if existing := page.Pagination.Total; existing > 0 {
		m.logger.Warn("destination already holds records, aborting migration",
			zap.Int("existing", existing))
		return &Report{ExistingInDestination: existing}, nil
	}

	records, err := m.source.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading source records: %w", err)
	}

	report := &Report{Total: len(records)}
	for _, record := range records {
		copied := *record
		copied.ID = ""
		copied.Events = append([]domain.TrackingEvent(nil), record.Events...)

		if _, err := m.dest.AddShipment(ctx, &copied); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ItemFailure{
				TrackingID: record.TrackingID,
				Reason:     err.Error(),
			})
			m.logger.Warn("failed to migrate shipment",
				zap.String("tracking_id", record.TrackingID), zap.Error(err))
			continue
		}
		report.Migrated++
	}

	m.logger.Info("migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total),
	)
	return report, nil
}
