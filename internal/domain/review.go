package domain

import (
	"context"
	"time"
)

type Review struct {
	ID 			string
	OrderID 	string
	ListingID 	string
	BuyerID 	string
	Rating 		int
	Comment 	string
	CreatedAt 	time.Time
}

type ReviewRepository interface {
	ListByListing(ctx context.Context, listingID string) ([]*Review, error)
}
