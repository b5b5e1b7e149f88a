package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestShouldAppendEvent_TailOnly verifies the append decision: compare
// against the most recent event only, append when any of the triple
// differs or the log is empty.
func TestShouldAppendEvent_TailOnly(t *testing.T) {
	last := &TrackingEvent{
		Status:      StatusInTransit,
		Location:    "Dubai Hub",
		Description: "x",
	}

	assert.True(t, ShouldAppendEvent(nil, StatusInTransit, "Dubai Hub", "x"))

	assert.False(t, ShouldAppendEvent(last, StatusInTransit, "Dubai Hub", "x"))

	assert.True(t, ShouldAppendEvent(last, StatusOutForDelivery, "Dubai Hub", "x"))
	assert.True(t, ShouldAppendEvent(last, StatusInTransit, "Dubai Hub 2", "x"))
	assert.True(t, ShouldAppendEvent(last, StatusInTransit, "Dubai Hub", "y"))
}

// TestPatch_Apply_TopLevelMerge verifies shallow merging: untouched
// fields survive, supplied nested objects replace wholesale.
func TestPatch_Apply_TopLevelMerge(t *testing.T) {
	s := validShipment()
	s.EstimatedDelivery = time.Now().Add(24 * time.Hour)
	before := *s

	newCustomer := CustomerInfo{Name: "New Name", Email: "new@example.com", Phone: "+1", Address: "2 Side St"}
	patch := &ShipmentPatch{CustomerInfo: &newCustomer}

	now := time.Now()
	patch.Apply(s, now)

	assert.Equal(t, newCustomer, s.CustomerInfo)
	assert.Equal(t, before.ShipmentDetails, s.ShipmentDetails)
	assert.Equal(t, now, s.UpdatedAt)
}

// TestPatch_Apply_DetailsReplacedWholesale verifies that a details patch
// with substance replaces the whole nested object.
func TestPatch_Apply_DetailsReplacedWholesale(t *testing.T) {
	s := validShipment()

	newDetails := ShipmentDetails{Origin: "DXB", Destination: "NBO", Weight: 9}
	patch := &ShipmentPatch{ShipmentDetails: &newDetails}
	patch.Apply(s, time.Now())

	assert.Equal(t, newDetails, s.ShipmentDetails)
}

// TestPatch_Apply_EstimatedDeliveryPromotion verifies that a details
// patch carrying only an estimated delivery is promoted to the top-level
// field instead of wiping the details.
func TestPatch_Apply_EstimatedDeliveryPromotion(t *testing.T) {
	s := validShipment()
	originalDetails := s.ShipmentDetails

	eta := time.Now().Add(72 * time.Hour)
	patch := &ShipmentPatch{ShipmentDetails: &ShipmentDetails{EstimatedDelivery: &eta}}
	patch.Apply(s, time.Now())

	assert.Equal(t, eta, s.EstimatedDelivery)
	assert.Equal(t, originalDetails, s.ShipmentDetails)
}

// TestPatch_HasTrackingChange verifies detection of the three fields
// that feed the event-append decision.
func TestPatch_HasTrackingChange(t *testing.T) {
	status := StatusDelivered
	location := "LON"
	description := "Arrived"

	assert.False(t, (&ShipmentPatch{}).HasTrackingChange())
	assert.True(t, (&ShipmentPatch{Status: &status}).HasTrackingChange())
	assert.True(t, (&ShipmentPatch{Location: &location}).HasTrackingChange())
	assert.True(t, (&ShipmentPatch{Description: &description}).HasTrackingChange())
}

// TestPatch_IsEmpty verifies the no-change check used to skip writes.
func TestPatch_IsEmpty(t *testing.T) {
	require.True(t, (&ShipmentPatch{}).IsEmpty())

	eta := time.Now()
	assert.False(t, (&ShipmentPatch{EstimatedDelivery: &eta}).IsEmpty())
}

// TestNewPagination verifies pages == ceil(total/limit).
func TestNewPagination(t *testing.T) {
	p := NewPagination(1, 10, 25)
	assert.Equal(t, 3, p.Pages)

	p = NewPagination(2, 10, 20)
	assert.Equal(t, 2, p.Pages)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.Pages)
}

// TestListQuery_Matches verifies status and search filtering.
func TestListQuery_Matches(t *testing.T) {
	s := validShipment()
	s.TrackingID = "SFABC123"
	s.Status = StatusDelivered

	assert.True(t, ListQuery{}.Normalized().Matches(s))
	assert.True(t, ListQuery{Status: "DELIVERED"}.Normalized().Matches(s))
	assert.False(t, ListQuery{Status: "processing"}.Normalized().Matches(s))

	assert.True(t, ListQuery{Search: "abc1"}.Normalized().Matches(s))
	assert.True(t, ListQuery{Search: "JANE@"}.Normalized().Matches(s))
	assert.True(t, ListQuery{Search: "jane d"}.Normalized().Matches(s))
	assert.False(t, ListQuery{Search: "nobody"}.Normalized().Matches(s))
}
