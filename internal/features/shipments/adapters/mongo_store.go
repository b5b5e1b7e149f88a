package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

const shipmentsCollection = "shipments"

// mongoShipment is the backend-native document shape. It exists so the
// ObjectID stays a proper ObjectID in the collection while the canonical
// shape carries it as a hex string.
type mongoShipment struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty"`
	TrackingID        string                 `bson:"trackingId"`
	Status            domain.ShipmentStatus  `bson:"status"`
	CustomerInfo      domain.CustomerInfo    `bson:"customerInfo"`
	ShipmentDetails   domain.ShipmentDetails `bson:"shipmentDetails"`
	Events            []domain.TrackingEvent `bson:"events"`
	EstimatedDelivery time.Time              `bson:"estimatedDelivery"`
	ActualDelivery    *time.Time             `bson:"actualDelivery,omitempty"`
	CreatedAt         time.Time              `bson:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt"`
}

func toMongoShipment(s *domain.Shipment) *mongoShipment {
	return &mongoShipment{
		TrackingID:        domain.NormalizeTrackingID(s.TrackingID),
		Status:            s.Status,
		CustomerInfo:      s.CustomerInfo,
		ShipmentDetails:   s.ShipmentDetails,
		Events:            s.Events,
		EstimatedDelivery: s.EstimatedDelivery,
		ActualDelivery:    s.ActualDelivery,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// fromMongoShipment converts the raw document into the canonical shape
// through the shared normalization function.
func fromMongoShipment(m *mongoShipment) *domain.Shipment {
	if m == nil {
		return nil
	}
	s := &domain.Shipment{
		ID:                m.ID.Hex(),
		TrackingID:        m.TrackingID,
		Status:            m.Status,
		CustomerInfo:      m.CustomerInfo,
		ShipmentDetails:   m.ShipmentDetails,
		Events:            m.Events,
		EstimatedDelivery: m.EstimatedDelivery,
		ActualDelivery:    m.ActualDelivery,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	return domain.Normalize(s)
}

// MongoStore persists one document per shipment in a MongoDB collection.
// Patches and event appends use single-document atomic updates; listing
// runs a filtered, sorted, paginated query plus a separate count.
type MongoStore struct {
	uri         string
	database    string
	client      *mongo.Client
	collection  *mongo.Collection
	logger      *zap.Logger
	initialized bool
}

// NewMongoStore creates a document-database backend for the given
// connection string and database name.
func NewMongoStore(uri, database string, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{uri: uri, database: database, logger: logger}
}

// Connect establishes the client, verifies connectivity and ensures the
// unique tracking-id index. It never writes data; the migration tool uses
// it so an empty destination stays empty until the real records arrive.
func (m *MongoStore) Connect(ctx context.Context) error {
	if m.client != nil {
		return nil
	}
	if strings.TrimSpace(m.uri) == "" {
		return fmt.Errorf("%w: connection string is not set", ports.ErrNotConfigured)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUnreachable, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUnreachable, err)
	}

	m.client = client
	m.collection = client.Database(m.database).Collection(shipmentsCollection)

	if _, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "trackingId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		m.logger.Warn("failed to ensure tracking id index", zap.Error(err))
	}
	return nil
}

// Init connects and additionally seeds an empty collection with sample
// shipments, for regular service startup. Idempotent.
func (m *MongoStore) Init(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	if err := m.Connect(ctx); err != nil {
		return err
	}

	if err := m.seedIfEmpty(ctx); err != nil {
		m.logger.Warn("failed to seed sample shipments", zap.Error(err))
	}

	m.initialized = true
	m.logger.Info("document storage initialized", zap.String("database", m.database))
	return nil
}

func (m *MongoStore) seedIfEmpty(ctx context.Context) error {
	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}

	var docs []interface{}
	now := time.Now()
	for _, s := range seedShipments(now) {
		if err := domain.PrepareNew(s, now); err != nil {
			continue
		}
		docs = append(docs, toMongoShipment(s))
	}
	_, err = m.collection.InsertMany(ctx, docs)
	return err
}

// Close disconnects from the database.
func (m *MongoStore) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// FindByTrackingID implements ports.ShipmentStore.
func (m *MongoStore) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	var doc mongoShipment
	err := m.collection.FindOne(ctx, bson.M{"trackingId": domain.NormalizeTrackingID(trackingID)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding shipment: %w", err)
	}
	return fromMongoShipment(&doc), nil
}

// FindByID resolves a shipment by ObjectID hex. A malformed id is a plain
// miss, not an error.
func (m *MongoStore) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc mongoShipment
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding shipment by id: %w", err)
	}
	return fromMongoShipment(&doc), nil
}

// FindByTrackingIDs implements ports.ShipmentStore.
func (m *MongoStore) FindByTrackingIDs(ctx context.Context, trackingIDs []string) ([]*domain.Shipment, error) {
	normalized := make([]string, 0, len(trackingIDs))
	for _, id := range trackingIDs {
		normalized = append(normalized, domain.NormalizeTrackingID(id))
	}

	cursor, err := m.collection.Find(ctx, bson.M{"trackingId": bson.M{"$in": normalized}})
	if err != nil {
		return nil, fmt.Errorf("finding shipments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoShipment
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding shipments: %w", err)
	}

	result := make([]*domain.Shipment, 0, len(docs))
	for i := range docs {
		result = append(result, fromMongoShipment(&docs[i]))
	}
	return result, nil
}

func listFilter(q domain.ListQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = strings.ToLower(q.Status)
	}
	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"trackingId": pattern},
			{"customerInfo.name": pattern},
			{"customerInfo.email": pattern},
		}
	}
	return filter
}

// GetAllShipments implements ports.ShipmentStore.
func (m *MongoStore) GetAllShipments(ctx context.Context, query domain.ListQuery) (*domain.ShipmentPage, error) {
	q := query.Normalized()
	filter := listFilter(q)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing shipments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoShipment
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding shipments: %w", err)
	}

	data := make([]*domain.Shipment, 0, len(docs))
	for i := range docs {
		data = append(data, fromMongoShipment(&docs[i]))
	}

	return &domain.ShipmentPage{
		Data:       data,
		Pagination: domain.NewPagination(q.Page, q.Limit, int(total)),
	}, nil
}

// AddShipment implements ports.ShipmentStore. Uniqueness is enforced by
// the collection's unique index, so the conflict check and the insert are
// one atomic operation.
func (m *MongoStore) AddShipment(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	if err := domain.PrepareNew(shipment, time.Now()); err != nil {
		return nil, err
	}

	doc := toMongoShipment(shipment)
	res, err := m.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ports.ErrDuplicateTrackingID
	}
	if err != nil {
		return nil, fmt.Errorf("inserting shipment: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	m.logger.Debug("shipment added", zap.String("tracking_id", doc.TrackingID))
	return fromMongoShipment(doc), nil
}

// UpdateShipment implements ports.ShipmentStore with a single atomic
// $set update.
func (m *MongoStore) UpdateShipment(ctx context.Context, trackingID string, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.CustomerInfo != nil {
		set["customerInfo"] = *patch.CustomerInfo
	}
	if d := patch.ShipmentDetails; d != nil {
		if domain.DetailsOnlyEstimatedDelivery(d) {
			set["estimatedDelivery"] = *d.EstimatedDelivery
		} else {
			set["shipmentDetails"] = *d
			if d.EstimatedDelivery != nil {
				set["estimatedDelivery"] = *d.EstimatedDelivery
			}
		}
	}
	if patch.EstimatedDelivery != nil {
		set["estimatedDelivery"] = *patch.EstimatedDelivery
	}
	if patch.ActualDelivery != nil {
		set["actualDelivery"] = *patch.ActualDelivery
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoShipment
	err := m.collection.FindOneAndUpdate(ctx,
		bson.M{"trackingId": domain.NormalizeTrackingID(trackingID)},
		bson.M{"$set": set}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating shipment: %w", err)
	}
	return fromMongoShipment(&doc), nil
}

// AppendTrackingEvent implements ports.ShipmentStore. The push and the
// status change are one atomic document update; the first transition to
// delivered sets actualDelivery through a conditional set-once update.
func (m *MongoStore) AppendTrackingEvent(ctx context.Context, trackingID string, event domain.TrackingEvent) (*domain.Shipment, error) {
	now := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}

	id := domain.NormalizeTrackingID(trackingID)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoShipment
	err := m.collection.FindOneAndUpdate(ctx,
		bson.M{"trackingId": id},
		bson.M{
			"$push": bson.M{"events": event},
			"$set":  bson.M{"status": event.Status, "updatedAt": now},
		}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appending tracking event: %w", err)
	}

	if event.Status == domain.StatusDelivered && doc.ActualDelivery == nil {
		res, err := m.collection.UpdateOne(ctx,
			bson.M{"trackingId": id, "actualDelivery": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"actualDelivery": now}})
		if err != nil {
			return nil, fmt.Errorf("recording delivery time: %w", err)
		}
		if res.ModifiedCount > 0 {
			doc.ActualDelivery = &now
		}
	}

	return fromMongoShipment(&doc), nil
}

// DeleteShipment implements ports.ShipmentStore.
func (m *MongoStore) DeleteShipment(ctx context.Context, trackingID string) (bool, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"trackingId": domain.NormalizeTrackingID(trackingID)})
	if err != nil {
		return false, fmt.Errorf("deleting shipment: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// GetStats implements ports.StatsProvider.
func (m *MongoStore) GetStats(ctx context.Context) (*domain.StorageStats, error) {
	total, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("counting shipments: %w", err)
	}

	byStatus := make(map[string]int)
	cursor, err := m.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err == nil {
		defer cursor.Close(ctx)
		var rows []struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.All(ctx, &rows); err == nil {
			for _, row := range rows {
				byStatus[row.Status] = row.Count
			}
		}
	}

	connected := m.client.Ping(ctx, readpref.Primary()) == nil

	return &domain.StorageStats{
		Backend:   "document-db",
		Available: connected,
		Total:     int(total),
		ByStatus:  byStatus,
	}, nil
}
