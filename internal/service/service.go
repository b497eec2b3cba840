package service

import (
	"context"

	"swimshop/internal/model"
)

// CheckoutService converts carts into persisted orders.
type CheckoutService interface {
	// Checkout checks stock, deducts it from batches and writes the order in
	// one transaction. Nothing is persisted when it returns an error.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResult, error)

	// GetOrder retrieves a finished order with its lines. It returns nil, nil
	// when the order does not exist.
	GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error)
}
