package domain

import "time"

// ShipmentPatch carries the fields an update may change. Nil fields are
// left untouched; non-nil nested objects replace the existing value
// wholesale, with one exception handled by Apply: a details patch that
// carries only an estimated delivery is promoted to the top-level field
// instead of wiping the rest of the details.
//
// Location and Description do not live on the shipment itself; together
// with Status they feed the tracking-event append decision.
type ShipmentPatch struct {
	Status            *ShipmentStatus  `json:"status"`
	Location          *string          `json:"location"`
	Description       *string          `json:"description"`
	CustomerInfo      *CustomerInfo    `json:"customerInfo"`
	ShipmentDetails   *ShipmentDetails `json:"shipmentDetails"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery"`
	ActualDelivery    *time.Time       `json:"actualDelivery"`
}

// HasTrackingChange reports whether the patch carries any of the three
// fields that participate in the tracking-event append decision.
func (p *ShipmentPatch) HasTrackingChange() bool {
	return p.Status != nil || p.Location != nil || p.Description != nil
}

// IsEmpty reports whether the patch changes nothing at all.
func (p *ShipmentPatch) IsEmpty() bool {
	return p.Status == nil && p.Location == nil && p.Description == nil &&
		p.CustomerInfo == nil && p.ShipmentDetails == nil &&
		p.EstimatedDelivery == nil && p.ActualDelivery == nil
}

// DetailsOnlyEstimatedDelivery reports whether a details patch carries
// nothing but an estimated delivery date. Such a patch is promoted to the
// top-level field rather than replacing the details wholesale.
func DetailsOnlyEstimatedDelivery(d *ShipmentDetails) bool {
	return d.EstimatedDelivery != nil &&
		d.Origin == "" && d.Destination == "" && d.Weight == 0 &&
		d.ActualWeight == nil && d.VolumetricWeight == nil &&
		d.NumberOfPackages == nil && d.Dimensions == nil &&
		d.ServiceType == nil && d.FlightDetails == nil &&
		d.DeclaredValue == nil && d.Description == ""
}

// Apply merges the patch into the shipment: shallow per top-level field,
// nested objects replaced wholesale. A details patch supplying only an
// estimated delivery is promoted to the top-level field. Refreshes
// UpdatedAt. Status is applied through the event-append flow, not here.
func (p *ShipmentPatch) Apply(s *Shipment, now time.Time) {
	if p.CustomerInfo != nil {
		s.CustomerInfo = *p.CustomerInfo
	}
	if d := p.ShipmentDetails; d != nil {
		if DetailsOnlyEstimatedDelivery(d) {
			s.EstimatedDelivery = *d.EstimatedDelivery
		} else {
			s.ShipmentDetails = *d
			if d.EstimatedDelivery != nil {
				s.EstimatedDelivery = *d.EstimatedDelivery
			}
		}
	}
	if p.EstimatedDelivery != nil {
		s.EstimatedDelivery = *p.EstimatedDelivery
	}
	if p.ActualDelivery != nil {
		s.ActualDelivery = p.ActualDelivery
	}
	s.UpdatedAt = now
}

// ShouldAppendEvent decides whether an update warrants a new tracking
// event. The incoming (status, location, description) triple is compared
// against the most recent event only, never the full history: a repeat of
// an older event several steps back is deliberately not detected. Append
// when any of the three differs from the tail, or when there is no prior
// event at all.
func ShouldAppendEvent(last *TrackingEvent, status ShipmentStatus, location, description string) bool {
	if last == nil {
		return true
	}
	return last.Status != status || last.Location != location || last.Description != description
}
