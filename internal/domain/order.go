package domain

import (
	"fmt"
	"time"
)

type OrderStatus uint8

const (
	StatusUnknown OrderStatus = iota
	StatusPending
	StatusConfirmed
	StatusProcessing
	StatusShipped
	StatusDelivered
	StatusCancelled
	StatusDisputed
	StatusRefunded
)

// AllOrderStatuses lists every defined status in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusDisputed,
	StatusRefunded,
}

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusProcessing:
		return "processing"
	case StatusShipped:
		return "shipped"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	case StatusDisputed:
		return "disputed"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no action may be applied to an order in this status.
// Delivered is not terminal: it still accepts review and, inside the window, dispute.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s OrderStatus) Valid() bool {
	return s >= StatusPending && s <= StatusRefunded
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	for _, s := range AllOrderStatuses {
		if s.String() == v {
			return s, nil
		}
	}
	return StatusUnknown, fmt.Errorf("%w: unknown order status %q", ErrInvalidPayload, v)
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Order struct {
	ID 			string
	ListingID 	string
	BuyerID 	string
	SellerID 	string
	Quantity 	int64
	// UnitPrice is in minor currency units.
	UnitPrice 	int64
	Currency 	string
	Status 		OrderStatus
	Reviewed 	bool
	DeliveredAt *time.Time
	CreatedAt 	time.Time
	UpdatedAt 	time.Time
	Version 	int64
}

// Total is the order amount in minor currency units.
func (o *Order) Total() int64 {
	return o.Quantity * o.UnitPrice
}

func (o *Order) Clone() *Order {
	c := *o
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		c.DeliveredAt = &at
	}
	return &c
}

type OrderFilter struct {
	BuyerID 	string
	SellerID 	string
	ListingID 	string
	Statuses 	[]OrderStatus
	DateFrom 	time.Time
	DateTo 		time.Time
	SortBy 		string
	SortOrder 	string
	Page 		int
	Limit 		int
}

// Normalize fills paging defaults and caps the page size.
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}
