package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShipment() *Shipment {
	return &Shipment{
		CustomerInfo: CustomerInfo{
			Name:    "Jane Doe",
			Email:   "jane@example.com",
			Phone:   "+15550000001",
			Address: "1 Main St",
		},
		ShipmentDetails: ShipmentDetails{
			Origin:      "NYC",
			Destination: "LON",
			Weight:      5,
		},
	}
}

// TestParseStatus verifies normalization and rejection of status values.
func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus(" In-Transit ")
	require.True(t, ok)
	assert.Equal(t, StatusInTransit, s)

	_, ok = ParseStatus("teleported")
	assert.False(t, ok)

	assert.True(t, ShipmentStatus("Picked-Up").IsValid())
	assert.False(t, ShipmentStatus("teleported").IsValid())
}

// TestStatus_IsCompleted verifies the completed flag per status.
func TestStatus_IsCompleted(t *testing.T) {
	assert.True(t, StatusDelivered.IsCompleted())
	assert.True(t, StatusFailedDelivery.IsCompleted())
	assert.True(t, StatusReturned.IsCompleted())
	assert.True(t, StatusCancelled.IsCompleted())
	assert.False(t, StatusProcessing.IsCompleted())
	assert.False(t, StatusOutForDelivery.IsCompleted())
}

// TestGenerateTrackingID verifies the prefix and the uppercase form of
// generated identifiers, and that two ids do not collide.
func TestGenerateTrackingID(t *testing.T) {
	a := GenerateTrackingID()
	b := GenerateTrackingID()

	assert.True(t, strings.HasPrefix(a, "SF"))
	assert.Equal(t, strings.ToUpper(a), a)
	assert.NotEqual(t, a, b)
}

// TestPrepareNew_Defaults verifies that a minimal shipment gets a
// generated tracking id, the processing status and exactly one initial
// event.
func TestPrepareNew_Defaults(t *testing.T) {
	s := validShipment()
	now := time.Now()

	require.NoError(t, PrepareNew(s, now))

	assert.True(t, HasTrackingIDPrefix(s.TrackingID))
	assert.Equal(t, StatusProcessing, s.Status)
	require.Len(t, s.Events, 1)
	assert.Equal(t, StatusProcessing, s.Events[0].Status)
	assert.False(t, s.Events[0].Completed)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, "General cargo", s.ShipmentDetails.Description)
}

// TestPrepareNew_InvalidStatusFallsBack verifies that an unknown status
// is replaced with processing.
func TestPrepareNew_InvalidStatusFallsBack(t *testing.T) {
	s := validShipment()
	s.Status = "warp-speed"

	require.NoError(t, PrepareNew(s, time.Now()))
	assert.Equal(t, StatusProcessing, s.Status)
}

// TestPrepareNew_NormalizesStatusCase verifies that a known status in the
// wrong casing is stored in its canonical lowercase form.
func TestPrepareNew_NormalizesStatusCase(t *testing.T) {
	s := validShipment()
	s.Status = "Delivered"

	require.NoError(t, PrepareNew(s, time.Now()))
	assert.Equal(t, StatusDelivered, s.Status)
	require.Len(t, s.Events, 1)
	assert.True(t, s.Events[0].Completed)
}

// TestPrepareNew_PreservesExistingFields verifies that records carrying
// their own history and timestamps (e.g. during migration) keep them.
func TestPrepareNew_PreservesExistingFields(t *testing.T) {
	created := time.Now().Add(-72 * time.Hour)
	s := validShipment()
	s.TrackingID = "sfabc123"
	s.Status = StatusInTransit
	s.CreatedAt = created
	s.UpdatedAt = created
	s.Events = []TrackingEvent{
		{Status: StatusProcessing, Description: "Registered", Timestamp: created},
		{Status: StatusInTransit, Description: "Departed", Timestamp: created.Add(time.Hour)},
	}

	require.NoError(t, PrepareNew(s, time.Now()))

	assert.Equal(t, "SFABC123", s.TrackingID)
	assert.Equal(t, StatusInTransit, s.Status)
	assert.Equal(t, created, s.CreatedAt)
	assert.Len(t, s.Events, 2)
}

// TestPrepareNew_Malformed verifies rejection of structurally broken input.
func TestPrepareNew_Malformed(t *testing.T) {
	assert.ErrorIs(t, PrepareNew(nil, time.Now()), ErrMalformedShipment)

	noCustomer := &Shipment{ShipmentDetails: ShipmentDetails{Origin: "NYC", Destination: "LON"}}
	assert.ErrorIs(t, PrepareNew(noCustomer, time.Now()), ErrMalformedShipment)

	noDetails := &Shipment{CustomerInfo: CustomerInfo{Name: "Jane"}}
	assert.ErrorIs(t, PrepareNew(noDetails, time.Now()), ErrMalformedShipment)
}

// TestResolveEstimatedDelivery verifies the three-step resolution:
// explicit value, nested details value, creation time plus five days.
func TestResolveEstimatedDelivery(t *testing.T) {
	explicit := time.Now().Add(48 * time.Hour)
	nested := time.Now().Add(96 * time.Hour)
	created := time.Now().Add(-24 * time.Hour)

	s := validShipment()
	s.CreatedAt = created

	assert.Equal(t, created.Add(5*24*time.Hour), ResolveEstimatedDelivery(s))

	s.ShipmentDetails.EstimatedDelivery = &nested
	assert.Equal(t, nested, ResolveEstimatedDelivery(s))

	s.EstimatedDelivery = explicit
	assert.Equal(t, explicit, ResolveEstimatedDelivery(s))
}

// TestNormalize verifies the canonical shape: uppercase tracking id,
// non-nil event log and the trackingEvents alias sharing the same
// sequence.
func TestNormalize(t *testing.T) {
	s := validShipment()
	s.TrackingID = "sfTest01"
	s.CreatedAt = time.Now()

	Normalize(s)

	assert.Equal(t, "SFTEST01", s.TrackingID)
	assert.NotNil(t, s.Events)
	assert.Equal(t, s.Events, s.TrackingEvents)
	assert.False(t, s.EstimatedDelivery.IsZero())

	assert.Nil(t, Normalize(nil))
}
