package httpdto

type CreateOrderRequest struct {
	OrderID 	string `json:"order_id,omitempty"`
	ListingID 	string `json:"listing_id"`
	BuyerID 	string `json:"buyer_id"`
	SellerID 	string `json:"seller_id"`
	Quantity 	int64  `json:"quantity"`
	UnitPrice 	int64  `json:"unit_price"`
	Currency 	string `json:"currency"`
}

// ActionRequest carries the optional arguments of an order action.
type ActionRequest struct {
	Reason 		string 				`json:"reason,omitempty"`
	Note 		string 				`json:"note,omitempty"`
	CaseID 		string 				`json:"case_id,omitempty"`
	Amount 		*int64 				`json:"amount,omitempty"`
	AssigneeID 	string 				`json:"assignee_id,omitempty"`
	Rating 		int 				`json:"rating,omitempty"`
	Comment 	string 				`json:"comment,omitempty"`
	Metadata 	map[string]string 	`json:"metadata,omitempty"`
}

type OpenDisputeRequest struct {
	Reason string `json:"reason"`
}

type EvidenceRequest struct {
	Note string `json:"note"`
}

type ResolveRequest struct {
	Action 		string `json:"action"`
	Amount 		*int64 `json:"amount,omitempty"`
	AssigneeID 	string `json:"assignee_id,omitempty"`
	Note 		string `json:"note,omitempty"`
}
