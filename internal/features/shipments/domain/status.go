package domain

import "strings"

// ShipmentStatus represents the current status of a shipment.
// There is no enforced transition graph: any status may follow any
// other, and the tracking-event log is the audit trail.
type ShipmentStatus string

const (
	// StatusProcessing indicates the shipment has been registered and is being prepared.
	StatusProcessing ShipmentStatus = "processing"
	// StatusPickedUp indicates the shipment has been collected from the sender.
	StatusPickedUp ShipmentStatus = "picked-up"
	// StatusInTransit indicates the shipment is moving between facilities.
	StatusInTransit ShipmentStatus = "in-transit"
	// StatusOutForDelivery indicates the shipment is on its final delivery leg.
	StatusOutForDelivery ShipmentStatus = "out-for-delivery"
	// StatusDelivered indicates the shipment reached the recipient.
	StatusDelivered ShipmentStatus = "delivered"
	// StatusFailedDelivery indicates a delivery attempt failed.
	StatusFailedDelivery ShipmentStatus = "failed-delivery"
	// StatusReturned indicates the shipment was returned to sender.
	StatusReturned ShipmentStatus = "returned"
	// StatusCancelled indicates the shipment was cancelled.
	StatusCancelled ShipmentStatus = "cancelled"
)

// AllStatuses lists every valid shipment status.
var AllStatuses = []ShipmentStatus{
	StatusProcessing,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusFailedDelivery,
	StatusReturned,
	StatusCancelled,
}

// ParseStatus normalizes and validates a status value.
// Returns the matching status and true, or empty and false when the
// value is not one of the eight known statuses.
func ParseStatus(value string) (ShipmentStatus, bool) {
	s := ShipmentStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllStatuses {
		if s == known {
			return known, true
		}
	}
	return "", false
}

// IsValid reports whether s is one of the eight known statuses.
func (s ShipmentStatus) IsValid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// IsCompleted reports whether s ends the shipment's active life, either
// successfully or not. Tracking events recorded with such a status carry
// the completed flag.
func (s ShipmentStatus) IsCompleted() bool {
	switch s {
	case StatusDelivered, StatusFailedDelivery, StatusReturned, StatusCancelled:
		return true
	}
	return false
}
