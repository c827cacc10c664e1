package models

import "time"

type OrderModel struct {
	ID 			string 		`gorm:"primaryKey"`
	ListingID 	string 		`gorm:"index:idx_orders_listing"`
	BuyerID 	string 		`gorm:"index:idx_orders_buyer"`
	SellerID 	string 		`gorm:"index:idx_orders_seller"`
	Quantity 	int64
	UnitPrice 	int64
	Currency 	string
	Status 		string 		`gorm:"index:idx_orders_status"`
	Reviewed 	bool
	DeliveredAt *time.Time
	CreatedAt 	time.Time 	`gorm:"index:idx_orders_created_at"`
	UpdatedAt 	time.Time
	Version 	int64
}

func (OrderModel) TableName() string {
	return "orders"
}

type AuditRecordModel struct {
	ID 			string 				`gorm:"primaryKey"`
	OrderID 	string 				`gorm:"uniqueIndex:idx_audit_order_seq"`
	Seq 		int64 				`gorm:"uniqueIndex:idx_audit_order_seq"`
	ActorID 	string
	ActorRole 	string
	Action 		string
	FromStatus 	string
	ToStatus 	string
	Timestamp 	time.Time
	Metadata 	map[string]string 	`gorm:"serializer:json;type:jsonb"`
}

func (AuditRecordModel) TableName() string {
	return "order_audit"
}

type ReviewModel struct {
	ID 			string 	`gorm:"primaryKey"`
	OrderID 	string 	`gorm:"uniqueIndex"`
	ListingID 	string 	`gorm:"index"`
	BuyerID 	string
	Rating 		int
	Comment 	string
	CreatedAt 	time.Time
}

func (ReviewModel) TableName() string {
	return "reviews"
}

type OutboxEventModel struct {
	ID 			string 	`gorm:"primaryKey"`
	AggregateID string
	EventType 	string
	Payload 	[]byte 	`gorm:"type:jsonb"`
	Attempts 	int
	LastError 	string
	CreatedAt 	time.Time
	PublishedAt *time.Time
}

func (OutboxEventModel) TableName() string {
	return "outbox_events"
}
