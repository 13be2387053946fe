package models

// ShipmentStatus is the shipment state machine. Transitions are strictly
// forward: IN_TRANSIT -> ARRIVED -> DELIVERED.
type ShipmentStatus string

const (
	ShipmentInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentArrived   ShipmentStatus = "ARRIVED"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
)

// Shipment is one truckload moving from the origin point towards a
// destination market. Progress runs from 0.0 at the origin to 1.0 at the
// destination; the current position is the linear interpolation between the
// two at the current progress fraction.
type Shipment struct {
	ID                string         `bson:"_id" json:"id" db:"id"`
	TruckID           string         `bson:"truck_id" json:"truck_id" db:"truck_id"`
	Commodity         string         `bson:"commodity" json:"commodity" db:"commodity"`
	Quantity          float64        `bson:"quantity" json:"quantity" db:"quantity"`
	DestinationMarket string         `bson:"destination_market" json:"destination_market" db:"destination_market"`
	StartLat          float64        `bson:"start_lat" json:"start_lat" db:"start_lat"`
	StartLon          float64        `bson:"start_lon" json:"start_lon" db:"start_lon"`
	DestinationLat    float64        `bson:"destination_lat" json:"destination_lat" db:"destination_lat"`
	DestinationLon    float64        `bson:"destination_lon" json:"destination_lon" db:"destination_lon"`
	CurrentLat        float64        `bson:"current_lat" json:"current_lat" db:"current_lat"`
	CurrentLon        float64        `bson:"current_lon" json:"current_lon" db:"current_lon"`
	Progress          float64        `bson:"progress" json:"progress" db:"progress"`
	Status            ShipmentStatus `bson:"status" json:"status" db:"status"`
}
