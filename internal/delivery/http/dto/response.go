package httpdto

import (
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	disputedto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/dispute"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
)

type ErrorResponse struct {
	Error 			string 		`json:"error"`
	Code 			string 		`json:"code"`
	CurrentStatus 	string 		`json:"current_status,omitempty"`
	AllowedActions 	[]string 	`json:"allowed_actions,omitempty"`
}

type OrderResponse struct {
	ID 			string 		`json:"id"`
	ListingID 	string 		`json:"listing_id"`
	BuyerID 	string 		`json:"buyer_id"`
	SellerID 	string 		`json:"seller_id"`
	Quantity 	int64 		`json:"quantity"`
	UnitPrice 	int64 		`json:"unit_price"`
	Total 		int64 		`json:"total"`
	Currency 	string 		`json:"currency"`
	Status 		string 		`json:"status"`
	Reviewed 	bool 		`json:"reviewed"`
	DeliveredAt *time.Time 	`json:"delivered_at,omitempty"`
	CreatedAt 	time.Time 	`json:"created_at"`
	UpdatedAt 	time.Time 	`json:"updated_at"`
	Version 	int64 		`json:"version"`
}

type PaginationResponse struct {
	CurrentPage 	int32 `json:"current_page"`
	TotalPages 		int32 `json:"total_pages"`
	TotalItems 		int32 `json:"total_items"`
	ItemsPerPage 	int32 `json:"items_per_page"`
}

type OrdersPageResponse struct {
	Orders 		[]OrderResponse 	`json:"orders"`
	Pagination 	PaginationResponse 	`json:"pagination"`
}

type AuditRecordResponse struct {
	ID 			string 				`json:"id"`
	Seq 		int64 				`json:"seq"`
	ActorID 	string 				`json:"actor_id"`
	ActorRole 	string 				`json:"actor_role"`
	Action 		string 				`json:"action"`
	FromStatus 	string 				`json:"from_status"`
	ToStatus 	string 				`json:"to_status"`
	Timestamp 	time.Time 			`json:"timestamp"`
	Metadata 	map[string]string 	`json:"metadata,omitempty"`
}

type ReplayResponse struct {
	OrderID string `json:"order_id"`
	Status 	string `json:"status"`
}

type TimelineEntryResponse struct {
	Type 		string 		`json:"type"`
	ActorID 	string 		`json:"actor_id"`
	ActorRole 	string 		`json:"actor_role"`
	Note 		string 		`json:"note,omitempty"`
	OccurredAt 	time.Time 	`json:"occurred_at"`
}

type CaseResponse struct {
	ID 					string 					`json:"id"`
	OrderID 			string 					`json:"order_id"`
	OpenedBy 			string 					`json:"opened_by"`
	OpenedByID 			string 					`json:"opened_by_id"`
	Reason 				string 					`json:"reason"`
	Status 				string 					`json:"status"`
	OrderStatusOriginal string 					`json:"order_status_original"`
	ResolutionAction 	string 					`json:"resolution_action,omitempty"`
	ResolutionAmount 	*int64 					`json:"resolution_amount,omitempty"`
	AssignedOperatorID 	string 					`json:"assigned_operator_id,omitempty"`
	EscalationLevel 	int 					`json:"escalation_level"`
	Timeline 			[]TimelineEntryResponse `json:"timeline"`
	CreatedAt 			time.Time 				`json:"created_at"`
	UpdatedAt 			time.Time 				`json:"updated_at"`
	ResolvedAt 			*time.Time 				`json:"resolved_at,omitempty"`
	Version 			int64 					`json:"version"`
}

type CasesPageResponse struct {
	Cases 		[]CaseResponse 		`json:"cases"`
	Pagination 	PaginationResponse 	`json:"pagination"`
}

type ResolutionResponse struct {
	Order 			OrderResponse 	`json:"order"`
	Case 			CaseResponse 	`json:"case"`
	Action 			string 			`json:"action"`
	RefundedAmount 	int64 			`json:"refunded_amount"`
}

type ReviewResponse struct {
	ID 			string 		`json:"id"`
	OrderID 	string 		`json:"order_id"`
	ListingID 	string 		`json:"listing_id"`
	BuyerID 	string 		`json:"buyer_id"`
	Rating 		int 		`json:"rating"`
	Comment 	string 		`json:"comment,omitempty"`
	CreatedAt 	time.Time 	`json:"created_at"`
}

func NewOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID: 			o.ID,
		ListingID: 		o.ListingID,
		BuyerID: 		o.BuyerID,
		SellerID: 		o.SellerID,
		Quantity: 		o.Quantity,
		UnitPrice: 		o.UnitPrice,
		Total: 			o.Total(),
		Currency: 		o.Currency,
		Status: 		o.Status.String(),
		Reviewed: 		o.Reviewed,
		DeliveredAt: 	o.DeliveredAt,
		CreatedAt: 		o.CreatedAt,
		UpdatedAt: 		o.UpdatedAt,
		Version: 		o.Version,
	}
}

func NewPaginationResponse(p orderdto.Pagination) PaginationResponse {
	return PaginationResponse{
		CurrentPage: 	p.CurrentPage,
		TotalPages: 	p.TotalPages,
		TotalItems: 	p.TotalItems,
		ItemsPerPage: 	p.ItemsPerPage,
	}
}

func NewOrdersPageResponse(page *orderdto.OrdersPage) OrdersPageResponse {
	orders := make([]OrderResponse, 0, len(page.Orders))
	for _, o := range page.Orders {
		orders = append(orders, NewOrderResponse(o))
	}
	return OrdersPageResponse{Orders: orders, Pagination: NewPaginationResponse(page.Pagination)}
}

func NewAuditTrailResponse(trail []domain.AuditRecord) []AuditRecordResponse {
	out := make([]AuditRecordResponse, 0, len(trail))
	for _, r := range trail {
		out = append(out, AuditRecordResponse{
			ID: 		r.ID,
			Seq: 		r.Seq,
			ActorID: 	r.ActorID,
			ActorRole: 	r.ActorRole.String(),
			Action: 	r.Action.String(),
			FromStatus: r.FromStatus.String(),
			ToStatus: 	r.ToStatus.String(),
			Timestamp: 	r.Timestamp,
			Metadata: 	r.Metadata,
		})
	}
	return out
}

func NewCaseResponse(c *domain.DisputeCase) CaseResponse {
	timeline := make([]TimelineEntryResponse, 0, len(c.Timeline))
	for _, e := range c.Timeline {
		timeline = append(timeline, TimelineEntryResponse{
			Type: 		string(e.Type),
			ActorID: 	e.ActorID,
			ActorRole: 	e.ActorRole.String(),
			Note: 		e.Note,
			OccurredAt: e.OccurredAt,
		})
	}
	var resolution string
	if c.ResolutionAction != domain.ResolutionNone {
		resolution = c.ResolutionAction.String()
	}
	return CaseResponse{
		ID: 					c.ID,
		OrderID: 				c.OrderID,
		OpenedBy: 				c.OpenedBy.String(),
		OpenedByID: 			c.OpenedByID,
		Reason: 				c.Reason,
		Status: 				c.Status.String(),
		OrderStatusOriginal: 	c.OrderStatusOriginal.String(),
		ResolutionAction: 		resolution,
		ResolutionAmount: 		c.ResolutionAmount,
		AssignedOperatorID: 	c.AssignedOperatorID,
		EscalationLevel: 		c.EscalationLevel,
		Timeline: 				timeline,
		CreatedAt: 				c.CreatedAt,
		UpdatedAt: 				c.UpdatedAt,
		ResolvedAt: 			c.ResolvedAt,
		Version: 				c.Version,
	}
}

func NewCasesPageResponse(page *disputedto.CasesPage) CasesPageResponse {
	cases := make([]CaseResponse, 0, len(page.Cases))
	for _, c := range page.Cases {
		cases = append(cases, NewCaseResponse(c))
	}
	return CasesPageResponse{Cases: cases, Pagination: NewPaginationResponse(page.Pagination)}
}

func NewResolutionResponse(o *disputedto.ResolutionOutcome) ResolutionResponse {
	return ResolutionResponse{
		Order: 			NewOrderResponse(o.Order),
		Case: 			NewCaseResponse(o.Case),
		Action: 		o.Action.String(),
		RefundedAmount: o.RefundedAmount,
	}
}

func NewReviewsResponse(reviews []*domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, ReviewResponse{
			ID: 		r.ID,
			OrderID: 	r.OrderID,
			ListingID: 	r.ListingID,
			BuyerID: 	r.BuyerID,
			Rating: 	r.Rating,
			Comment: 	r.Comment,
			CreatedAt: 	r.CreatedAt,
		})
	}
	return out
}
