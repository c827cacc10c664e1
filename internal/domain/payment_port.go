package domain

import "context"

type RefundRequest struct {
	OrderID 		string
	// IdempotencyKey is stable per dispute case so retried resolutions refund once.
	IdempotencyKey 	string
	Amount 			int64
	Currency 		string
}

type PaymentGateway interface {
	Refund(ctx context.Context, req RefundRequest) error
}
