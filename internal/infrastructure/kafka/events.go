package publisher

import "time"

// CarrierDeliveryEvent is published by carrier integrations when a parcel is handed over.
type CarrierDeliveryEvent struct {
	OrderID 		string 		`json:"order_id"`
	CarrierID 		string 		`json:"carrier_id"`
	TrackingNumber 	string 		`json:"tracking_number"`
	DeliveredAt 	time.Time 	`json:"delivered_at"`
}

// CheckoutCompletedEvent is published by checkout once payment for an order succeeds.
type CheckoutCompletedEvent struct {
	OrderID 	string `json:"order_id"`
	ListingID 	string `json:"listing_id"`
	BuyerID 	string `json:"buyer_id"`
	SellerID 	string `json:"seller_id"`
	Quantity 	int64  `json:"quantity"`
	UnitPrice 	int64  `json:"unit_price"`
	Currency 	string `json:"currency"`
}
