package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/config"
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const idempotencyHeader = "Idempotency-Key"

type refundRequest struct {
	OrderID 	string `json:"order_id"`
	Amount 		int64  `json:"amount"`
	Currency 	string `json:"currency"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// rejectedError is a definitive answer from the payment service. It does not count
// against the circuit breaker.
type rejectedError struct {
	status 	int
	message string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("payment service rejected refund (%d): %s", e.status, e.message)
}

// HTTPPaymentClient issues refunds against the payment service behind a circuit breaker.
type HTTPPaymentClient struct {
	Address string
	client 	*http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewHTTPPaymentClient(cfg config.PaymentService) *HTTPPaymentClient {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name: 			"payment-service",
		MaxRequests: 	1,
		Timeout: 		cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var rejected *rejectedError
			return err == nil || errors.As(err, &rejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &HTTPPaymentClient{
		Address: 	cfg.BaseURL,
		client: 	&http.Client{Timeout: cfg.Timeout},
		breaker: 	gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Refund asks the payment service to return amount to the buyer. The idempotency key
// makes repeated calls for the same dispute safe; a 409 means it was already refunded.
func (c *HTTPPaymentClient) Refund(ctx context.Context, req domain.RefundRequest) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.refund(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("%w: order %s: %w", domain.ErrRefundFailed, req.OrderID, err)
	}
	return nil
}

func (c *HTTPPaymentClient) refund(ctx context.Context, req domain.RefundRequest) error {
	body, err := json.Marshal(refundRequest{
		OrderID: 	req.OrderID,
		Amount: 	req.Amount,
		Currency: 	req.Currency,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/refunds", c.Address), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(idempotencyHeader, req.IdempotencyKey)

	start := time.Now()
	response, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	slog.Debug("payment service responded", "order_id", req.OrderID, "status", response.StatusCode, "elapsed", time.Since(start))

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return nil
	case response.StatusCode == http.StatusConflict:
		return nil
	case response.StatusCode >= 400 && response.StatusCode < 500:
		var errorResponse ErrorResponse
		if err := json.Unmarshal(responseBodyBytes, &errorResponse); err != nil || errorResponse.Error == "" {
			errorResponse.Error = http.StatusText(response.StatusCode)
		}
		return &rejectedError{status: response.StatusCode, message: errorResponse.Error}
	default:
		return fmt.Errorf("payment service returned %d", response.StatusCode)
	}
}
