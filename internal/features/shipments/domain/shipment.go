package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// trackingIDPrefix is the fixed prefix of generated tracking identifiers.
const trackingIDPrefix = "SF"

// defaultDescription is used when a shipment is created without one.
const defaultDescription = "General cargo"

// estimatedDeliveryOffset is the fallback delivery estimate applied when
// neither the shipment nor its details carry an explicit date.
const estimatedDeliveryOffset = 5 * 24 * time.Hour

// ErrMalformedShipment is returned when a shipment is missing a required
// nested object. Field-level validation is the caller's job; this guards
// only against structurally broken input.
var ErrMalformedShipment = errors.New("shipment is missing required customer info or shipment details")

// CustomerInfo holds the contact details of the shipment's customer.
type CustomerInfo struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

// Dimensions holds package measurements in centimeters.
type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// ShipmentDetails holds the physical and routing attributes of a shipment.
// Optional fields are pointers so the normalized shape always carries them
// explicitly, null when unset.
type ShipmentDetails struct {
	Origin            string      `json:"origin" bson:"origin"`
	Destination       string      `json:"destination" bson:"destination"`
	Weight            float64     `json:"weight" bson:"weight"`
	ActualWeight      *float64    `json:"actualWeight" bson:"actualWeight,omitempty"`
	VolumetricWeight  *float64    `json:"volumetricWeight" bson:"volumetricWeight,omitempty"`
	NumberOfPackages  *int        `json:"numberOfPackages" bson:"numberOfPackages,omitempty"`
	Dimensions        *Dimensions `json:"dimensions" bson:"dimensions,omitempty"`
	ServiceType       *string     `json:"serviceType" bson:"serviceType,omitempty"`
	FlightDetails     *string     `json:"flightDetails" bson:"flightDetails,omitempty"`
	DeclaredValue     *float64    `json:"declaredValue" bson:"declaredValue,omitempty"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery" bson:"estimatedDelivery,omitempty"`
	Description       string      `json:"description" bson:"description"`
}

// TrackingEvent is one immutable entry in a shipment's append-only history.
type TrackingEvent struct {
	Status      ShipmentStatus `json:"status" bson:"status"`
	Description string         `json:"description" bson:"description"`
	Location    string         `json:"location" bson:"location"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp"`
	Completed   bool           `json:"completed" bson:"completed"`
}

// Shipment is the root aggregate of the tracking core.
//
// TrackingEvents mirrors Events under the alias some callers expect; it is
// populated by Normalize and never stored.
type Shipment struct {
	ID                string          `json:"id" bson:"_id,omitempty"`
	TrackingID        string          `json:"trackingId" bson:"trackingId"`
	Status            ShipmentStatus  `json:"status" bson:"status"`
	CustomerInfo      CustomerInfo    `json:"customerInfo" bson:"customerInfo"`
	ShipmentDetails   ShipmentDetails `json:"shipmentDetails" bson:"shipmentDetails"`
	Events            []TrackingEvent `json:"events" bson:"events"`
	TrackingEvents    []TrackingEvent `json:"trackingEvents" bson:"-"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery" bson:"estimatedDelivery"`
	ActualDelivery    *time.Time      `json:"actualDelivery" bson:"actualDelivery,omitempty"`
	CreatedAt         time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// LastEvent returns the most recent tracking event, or nil when the log is
// empty.
func (s *Shipment) LastEvent() *TrackingEvent {
	if len(s.Events) == 0 {
		return nil
	}
	return &s.Events[len(s.Events)-1]
}

// NormalizeTrackingID trims and uppercases a tracking identifier. All
// lookups and writes go through this so matching is case-insensitive.
func NormalizeTrackingID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// GenerateTrackingID produces a new identifier from the fixed prefix, a
// time-derived component and a short random tail.
func GenerateTrackingID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	tail := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return NormalizeTrackingID(trackingIDPrefix + ts + tail)
}

// HasTrackingIDPrefix reports whether id carries the generated-id prefix.
func HasTrackingIDPrefix(id string) bool {
	return strings.HasPrefix(NormalizeTrackingID(id), trackingIDPrefix)
}

// ResolveEstimatedDelivery returns the shipment's delivery estimate:
// the explicit top-level value, else the value nested in the details,
// else creation time plus a fixed five-day offset.
func ResolveEstimatedDelivery(s *Shipment) time.Time {
	if !s.EstimatedDelivery.IsZero() {
		return s.EstimatedDelivery
	}
	if s.ShipmentDetails.EstimatedDelivery != nil && !s.ShipmentDetails.EstimatedDelivery.IsZero() {
		return *s.ShipmentDetails.EstimatedDelivery
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return created.Add(estimatedDeliveryOffset)
}

// Normalize brings a backend-native record into the canonical shape every
// backend must return: uppercased tracking id, defaulted description,
// resolved delivery estimate, a non-nil event log and the trackingEvents
// alias pointing at the same sequence. It is the single normalization
// point shared by all backends.
func Normalize(s *Shipment) *Shipment {
	if s == nil {
		return nil
	}
	s.TrackingID = NormalizeTrackingID(s.TrackingID)
	if strings.TrimSpace(s.ShipmentDetails.Description) == "" {
		s.ShipmentDetails.Description = defaultDescription
	}
	s.EstimatedDelivery = ResolveEstimatedDelivery(s)
	if s.Events == nil {
		s.Events = []TrackingEvent{}
	}
	s.TrackingEvents = s.Events
	return s
}

// PrepareNew fills in everything a freshly added shipment must have while
// preserving fields already present, so records imported through migration
// keep their history and timestamps. Returns ErrMalformedShipment when a
// required nested object is absent.
func PrepareNew(s *Shipment, now time.Time) error {
	if s == nil {
		return ErrMalformedShipment
	}
	if (s.CustomerInfo == CustomerInfo{}) {
		return ErrMalformedShipment
	}
	if strings.TrimSpace(s.ShipmentDetails.Origin) == "" && strings.TrimSpace(s.ShipmentDetails.Destination) == "" {
		return ErrMalformedShipment
	}

	if strings.TrimSpace(s.TrackingID) == "" {
		s.TrackingID = GenerateTrackingID()
	} else {
		s.TrackingID = NormalizeTrackingID(s.TrackingID)
	}

	if parsed, ok := ParseStatus(string(s.Status)); ok {
		s.Status = parsed
	} else {
		s.Status = StatusProcessing
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	s.EstimatedDelivery = ResolveEstimatedDelivery(s)

	if len(s.Events) == 0 {
		s.Events = []TrackingEvent{{
			Status:      s.Status,
			Description: "Shipment registered",
			Location:    s.ShipmentDetails.Origin,
			Timestamp:   s.CreatedAt,
			Completed:   s.Status.IsCompleted(),
		}}
	}

	Normalize(s)
	return nil
}
