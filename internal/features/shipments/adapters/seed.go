package adapters

import (
	"time"

	"shipment-tracker/internal/features/shipments/domain"
)

// seedShipments returns the fixed sample set used to bootstrap an empty
// store: the file backend recreates its document from it, the document
// backend seeds an empty collection with it.
func seedShipments(now time.Time) []*domain.Shipment {
	five := 5.5
	twelve := 12.0
	express := "express"
	standard := "standard"

	return []*domain.Shipment{
		{
			TrackingID: "SFDEMO0001",
			Status:     domain.StatusInTransit,
			CustomerInfo: domain.CustomerInfo{
				Name:    "Amina Yusuf",
				Email:   "amina.yusuf@example.com",
				Phone:   "+971500000001",
				Address: "14 Marina Walk, Dubai",
			},
			ShipmentDetails: domain.ShipmentDetails{
				Origin:      "Dubai",
				Destination: "London",
				Weight:      five,
				ServiceType: &express,
				Description: "Documents and samples",
			},
			Events: []domain.TrackingEvent{
				{
					Status:      domain.StatusProcessing,
					Description: "Shipment registered",
					Location:    "Dubai",
					Timestamp:   now.Add(-48 * time.Hour),
				},
				{
					Status:      domain.StatusInTransit,
					Description: "Departed origin facility",
					Location:    "Dubai Hub",
					Timestamp:   now.Add(-24 * time.Hour),
				},
			},
			CreatedAt: now.Add(-48 * time.Hour),
			UpdatedAt: now.Add(-24 * time.Hour),
		},
		{
			TrackingID: "SFDEMO0002",
			Status:     domain.StatusProcessing,
			CustomerInfo: domain.CustomerInfo{
				Name:    "Carlos Mendes",
				Email:   "carlos.mendes@example.com",
				Phone:   "+971500000002",
				Address: "8 Rua Augusta, Lisbon",
			},
			ShipmentDetails: domain.ShipmentDetails{
				Origin:      "Lisbon",
				Destination: "Nairobi",
				Weight:      twelve,
				ServiceType: &standard,
			},
			CreatedAt: now.Add(-2 * time.Hour),
			UpdatedAt: now.Add(-2 * time.Hour),
		},
	}
}
