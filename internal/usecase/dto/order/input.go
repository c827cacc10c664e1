package orderdto

import "time"

type CreateOrderInput struct {
	// OrderID is optional; a uuid is generated when empty.
	OrderID 	string
	ListingID 	string
	BuyerID 	string
	SellerID 	string
	Quantity 	int64
	UnitPrice 	int64
	Currency 	string
}

type ListOrdersInput struct {
	BuyerID 	string
	SellerID 	string
	ListingID 	string
	Statuses 	[]string
	DateFrom 	time.Time
	DateTo 		time.Time
	SortBy 		string
	SortOrder 	string
	Page 		int
	Limit 		int
}
