package domain

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

// OrderCache holds read-side order snapshots for dashboards.
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*Order, error)
	Set(ctx context.Context, order *Order) error
	Delete(ctx context.Context, orderID string) error
}
