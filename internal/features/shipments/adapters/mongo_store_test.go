package adapters

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
)

// newMongo connects to the instance named by MONGO_TEST_URI, using a
// database unique to the test so runs do not interfere. Skipped when the
// variable is unset.
func newMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping document-db integration tests")
	}

	database := fmt.Sprintf("shipment_tracker_test_%d", time.Now().UnixNano())
	store := NewMongoStore(uri, database, nil)
	require.NoError(t, store.Init(context.Background()))

	t.Cleanup(func() {
		ctx := context.Background()
		store.client.Database(database).Drop(ctx)
		store.Close(ctx)
	})
	return store
}

// TestMongoStore_ConnectDoesNotSeed verifies the migration connect path
// leaves an empty collection empty.
func TestMongoStore_ConnectDoesNotSeed(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping document-db integration tests")
	}

	database := fmt.Sprintf("shipment_tracker_test_%d", time.Now().UnixNano())
	store := NewMongoStore(uri, database, nil)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))
	t.Cleanup(func() {
		store.client.Database(database).Drop(ctx)
		store.Close(ctx)
	})

	page, err := store.GetAllShipments(ctx, domain.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
}

// TestMongoStore_InitSeedsEmptyCollection verifies first-run seeding.
func TestMongoStore_InitSeedsEmptyCollection(t *testing.T) {
	store := newMongo(t)

	page, err := store.GetAllShipments(context.Background(), domain.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Data)
}

// TestMongoStore_RoundTrip verifies add then case-insensitive find, with
// the ObjectID surfacing as the record id.
func TestMongoStore_RoundTrip(t *testing.T) {
	store := newMongo(t)
	ctx := context.Background()

	created, err := store.AddShipment(ctx, newShipment("sfmongo1", ""))
	require.NoError(t, err)
	assert.Equal(t, "SFMONGO1", created.TrackingID)
	assert.NotEmpty(t, created.ID)

	found, err := store.FindByTrackingID(ctx, "sfMONGO1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "SFMONGO1", byID.TrackingID)
}

// TestMongoStore_DuplicateTrackingID verifies the unique index surfaces
// as the conflict error.
func TestMongoStore_DuplicateTrackingID(t *testing.T) {
	store := newMongo(t)
	ctx := context.Background()

	_, err := store.AddShipment(ctx, newShipment("SFMDUP1", ""))
	require.NoError(t, err)

	_, err = store.AddShipment(ctx, newShipment("sfmdup1", ""))
	assert.ErrorIs(t, err, ports.ErrDuplicateTrackingID)
}

// TestMongoStore_AppendTrackingEvent verifies the atomic push plus the
// set-once delivery time.
func TestMongoStore_AppendTrackingEvent(t *testing.T) {
	store := newMongo(t)
	ctx := context.Background()

	_, err := store.AddShipment(ctx, newShipment("SFMEVT1", domain.StatusInTransit))
	require.NoError(t, err)

	updated, err := store.AppendTrackingEvent(ctx, "SFMEVT1", domain.TrackingEvent{
		Status:      domain.StatusDelivered,
		Description: "Signed for",
		Location:    "LON",
		Completed:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusDelivered, updated.Status)
	assert.Len(t, updated.Events, 2)
	require.NotNil(t, updated.ActualDelivery)

	first := *updated.ActualDelivery
	updated, err = store.AppendTrackingEvent(ctx, "SFMEVT1", domain.TrackingEvent{
		Status:      domain.StatusDelivered,
		Description: "Re-confirmed",
		Location:    "LON",
		Completed:   true,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, first, *updated.ActualDelivery, time.Second)
}

// TestMongoStore_Pagination verifies the count query against the
// filtered set.
func TestMongoStore_Pagination(t *testing.T) {
	store := newMongo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.AddShipment(ctx, newShipment(fmt.Sprintf("SFMPAGE%d", i), domain.StatusInTransit))
		require.NoError(t, err)
	}

	page, err := store.GetAllShipments(ctx, domain.ListQuery{Page: 1, Limit: 2, Status: "in-transit"})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(page.Data), 2)
	assert.GreaterOrEqual(t, page.Pagination.Total, 5)
	assert.Equal(t, (page.Pagination.Total+1)/2, page.Pagination.Pages)
}

// TestMongoStore_Delete verifies removal and the boolean sentinel.
func TestMongoStore_Delete(t *testing.T) {
	store := newMongo(t)
	ctx := context.Background()

	_, err := store.AddShipment(ctx, newShipment("SFMDEL1", ""))
	require.NoError(t, err)

	removed, err := store.DeleteShipment(ctx, "sfmdel1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteShipment(ctx, "sfmdel1")
	require.NoError(t, err)
	assert.False(t, removed)
}

// TestMongoStore_InitNotConfigured verifies the connectivity error on a
// missing connection string.
func TestMongoStore_InitNotConfigured(t *testing.T) {
	store := NewMongoStore("", "db", nil)
	err := store.Init(context.Background())
	assert.ErrorIs(t, err, ports.ErrNotConfigured)
}
