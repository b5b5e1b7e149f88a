package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

const (
	documentName     = "shipments.json"
	backupDirName    = "backups"
	backupPrefix     = "shipments-backup-"
	backupTimeLayout = "20060102T150405.000000000"
	documentVersion  = "1.0"
	backupsRetained  = 10
)

// fileMetadata describes the document for quick inspection without
// parsing the shipment array.
type fileMetadata struct {
	Version        string    `json:"version"`
	LastUpdated    time.Time `json:"lastUpdated"`
	TotalShipments int       `json:"totalShipments"`
}

// fileDocument is the on-disk shape: the whole collection in one file.
type fileDocument struct {
	Shipments []*domain.Shipment `json:"shipments"`
	Metadata  fileMetadata       `json:"metadata"`
}

// FileStore persists the collection as a single JSON document. Every
// write is a full load, mutate, backup, atomic-rename cycle. There is no
// cross-call locking: two concurrent writers can lose one update, which
// is the documented trade-off of this backend. Reads reload the document
// on every call.
type FileStore struct {
	dir         string
	logger      *zap.Logger
	initialized bool
}

// NewFileStore creates a file backend rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}
}

func (f *FileStore) documentPath() string {
	return filepath.Join(f.dir, documentName)
}

func (f *FileStore) backupDir() string {
	return filepath.Join(f.dir, backupDirName)
}

// Init creates the storage directory, the backup directory and, when the
// primary document is missing, a fresh one from seed data. Idempotent.
func (f *FileStore) Init(ctx context.Context) error {
	if f.initialized {
		return nil
	}
	if strings.TrimSpace(f.dir) == "" {
		return fmt.Errorf("%w: storage directory is not set", ports.ErrNotConfigured)
	}
	if err := os.MkdirAll(f.backupDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating storage directories: %v", ports.ErrUnreachable, err)
	}

	if _, err := os.Stat(f.documentPath()); os.IsNotExist(err) {
		if err := f.writeSeedDocument(); err != nil {
			// Degraded but alive: reads will retry seeding on demand.
			f.logger.Warn("failed to seed storage document", zap.Error(err))
		}
	}

	f.initialized = true
	f.logger.Info("file storage initialized", zap.String("dir", f.dir))
	return nil
}

func (f *FileStore) writeSeedDocument() error {
	doc := &fileDocument{Shipments: []*domain.Shipment{}}
	for _, s := range seedShipments(time.Now()) {
		if err := domain.PrepareNew(s, time.Now()); err != nil {
			continue
		}
		s.ID = uuid.NewString()
		doc.Shipments = append(doc.Shipments, s)
	}
	return f.writeDocument(doc)
}

// load reads the whole document. A missing document is recreated from
// seed data and the read retried once.
func (f *FileStore) load() (*fileDocument, error) {
	raw, err := os.ReadFile(f.documentPath())
	if os.IsNotExist(err) {
		f.logger.Warn("storage document missing, recreating from seed data")
		if seedErr := f.writeSeedDocument(); seedErr != nil {
			return nil, fmt.Errorf("recreating storage document: %w", seedErr)
		}
		raw, err = os.ReadFile(f.documentPath())
	}
	if err != nil {
		return nil, fmt.Errorf("reading storage document: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing storage document: %w", err)
	}
	if doc.Shipments == nil {
		doc.Shipments = []*domain.Shipment{}
	}
	return &doc, nil
}

// writeDocument writes the document atomically: temp file in the same
// directory, then rename over the primary. A partial write can never
// corrupt the primary document.
func (f *FileStore) writeDocument(doc *fileDocument) error {
	doc.Metadata = fileMetadata{
		Version:        documentVersion,
		LastUpdated:    time.Now(),
		TotalShipments: len(doc.Shipments),
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage document: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, documentName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp document: %w", err)
	}
	if err := os.Rename(tmpName, f.documentPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing storage document: %w", err)
	}
	return nil
}

// save backs up the current primary document, writes the new one and
// rotates old backups. Backup failures are logged, never fatal: the
// primary write still goes through.
func (f *FileStore) save(doc *fileDocument) error {
	if err := f.backupCurrent(); err != nil {
		f.logger.Warn("backup before save failed", zap.Error(err))
	}
	if err := f.writeDocument(doc); err != nil {
		return err
	}
	if err := f.rotateBackups(); err != nil {
		f.logger.Warn("backup rotation failed", zap.Error(err))
	}
	return nil
}

func (f *FileStore) backupCurrent() error {
	raw, err := os.ReadFile(f.documentPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	name := backupPrefix + time.Now().Format(backupTimeLayout) + ".json"
	return os.WriteFile(filepath.Join(f.backupDir(), name), raw, 0o644)
}

// rotateBackups keeps exactly the ten most recent backups. Names embed a
// lexically sortable timestamp, so a descending name sort is a descending
// time sort.
func (f *FileStore) rotateBackups() error {
	entries, err := os.ReadDir(f.backupDir())
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, name := range names[min(len(names), backupsRetained):] {
		if err := os.Remove(filepath.Join(f.backupDir(), name)); err != nil {
			f.logger.Warn("failed to remove old backup", zap.String("name", name), zap.Error(err))
		}
	}
	return nil
}

func findInDocument(doc *fileDocument, trackingID string) (int, *domain.Shipment) {
	id := domain.NormalizeTrackingID(trackingID)
	for i, s := range doc.Shipments {
		if domain.NormalizeTrackingID(s.TrackingID) == id {
			return i, s
		}
	}
	return -1, nil
}

// FindByTrackingID implements ports.ShipmentStore.
func (f *FileStore) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	_, s := findInDocument(doc, trackingID)
	return domain.Normalize(s), nil
}

// FindByID resolves a shipment by its backend-native identifier.
func (f *FileStore) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, s := range doc.Shipments {
		if s.ID == id {
			return domain.Normalize(s), nil
		}
	}
	return nil, nil
}

// FindByTrackingIDs implements ports.ShipmentStore.
func (f *FileStore) FindByTrackingIDs(ctx context.Context, trackingIDs []string) ([]*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(trackingIDs))
	for _, id := range trackingIDs {
		wanted[domain.NormalizeTrackingID(id)] = struct{}{}
	}

	var result []*domain.Shipment
	for _, s := range doc.Shipments {
		if _, ok := wanted[domain.NormalizeTrackingID(s.TrackingID)]; ok {
			result = append(result, domain.Normalize(s))
		}
	}
	return result, nil
}

// GetAllShipments implements ports.ShipmentStore.
func (f *FileStore) GetAllShipments(ctx context.Context, query domain.ListQuery) (*domain.ShipmentPage, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	q := query.Normalized()
	var filtered []*domain.Shipment
	for _, s := range doc.Shipments {
		if q.Matches(s) {
			filtered = append(filtered, s)
		}
	}
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
	for _, s := range filtered[start:end] {
		data = append(data, domain.Normalize(s))
	}

	return &domain.ShipmentPage{
		Data:       data,
		Pagination: domain.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// AddShipment implements ports.ShipmentStore.
func (f *FileStore) AddShipment(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	explicit := shipment != nil && shipment.TrackingID != ""
	if err := domain.PrepareNew(shipment, time.Now()); err != nil {
		return nil, err
	}

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	if explicit {
		if _, existing := findInDocument(doc, shipment.TrackingID); existing != nil {
			return nil, ports.ErrDuplicateTrackingID
		}
	}
	if shipment.ID == "" {
		shipment.ID = uuid.NewString()
	}

	doc.Shipments = append(doc.Shipments, shipment)
	if err := f.save(doc); err != nil {
		return nil, err
	}

	f.logger.Debug("shipment added", zap.String("tracking_id", shipment.TrackingID))
	return domain.Normalize(shipment), nil
}

// UpdateShipment implements ports.ShipmentStore.
func (f *FileStore) UpdateShipment(ctx context.Context, trackingID string, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	_, s := findInDocument(doc, trackingID)
	if s == nil {
		return nil, nil
	}
	patch.Apply(s, time.Now())

	if err := f.save(doc); err != nil {
		return nil, err
	}
	return domain.Normalize(s), nil
}

// AppendTrackingEvent implements ports.ShipmentStore.
func (f *FileStore) AppendTrackingEvent(ctx context.Context, trackingID string, event domain.TrackingEvent) (*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	_, s := findInDocument(doc, trackingID)
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

	if err := f.save(doc); err != nil {
		return nil, err
	}
	return domain.Normalize(s), nil
}

// DeleteShipment implements ports.ShipmentStore.
func (f *FileStore) DeleteShipment(ctx context.Context, trackingID string) (bool, error) {
	doc, err := f.load()
	if err != nil {
		return false, err
	}

	i, s := findInDocument(doc, trackingID)
	if s == nil {
		return false, nil
	}
	doc.Shipments = append(doc.Shipments[:i], doc.Shipments[i+1:]...)

	if err := f.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// GetStats implements ports.StatsProvider.
func (f *FileStore) GetStats(ctx context.Context) (*domain.StorageStats, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int)
	for _, s := range doc.Shipments {
		byStatus[string(s.Status)]++
	}

	var size int64
	if info, err := os.Stat(f.documentPath()); err == nil {
		size = info.Size()
	}

	return &domain.StorageStats{
		Backend:      "file",
		Available:    true,
		Total:        len(doc.Shipments),
		ByStatus:     byStatus,
		StorageBytes: size,
	}, nil
}

// DocumentExists reports whether the primary document is on disk, without
// triggering seed-data recreation. The migration tool uses it to decide
// whether there is anything to migrate.
func (f *FileStore) DocumentExists() bool {
	_, err := os.Stat(f.documentPath())
	return err == nil
}

// LoadAll returns every record in the document as-is. Migration reads
// through this instead of paging.
func (f *FileStore) LoadAll(ctx context.Context) ([]*domain.Shipment, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, s := range doc.Shipments {
		domain.Normalize(s)
	}
	return doc.Shipments, nil
}
