package repository

import (
	"context"

	"swimshop/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProductRepository is the catalog lookup capability used by checkout.
type ProductRepository interface {
	// GetPricing returns id, price and discount for the given products, keyed by id.
	// Products that do not exist are absent from the map.
	GetPricing(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.Product, error)
}

// StockRepository defines data access for stock batches.
type StockRepository interface {
	// AvailableQuantities sums batch quantities per product. Products without
	// batches are absent from the map.
	AvailableQuantities(ctx context.Context, tx pgx.Tx, productIDs []int64) (map[int64]int, error)

	// BatchesForAllocation lists the product's non-empty batches ordered by
	// quantity descending, then id ascending.
	BatchesForAllocation(ctx context.Context, tx pgx.Tx, productID int64) ([]model.StockBatch, error)

	// DecrementBatch removes quantity units from the batch. It reports false,
	// without changing anything, when the batch no longer holds that many units.
	DecrementBatch(ctx context.Context, tx pgx.Tx, batchID int64, quantity int) (bool, error)

	// InsertBatches bulk-inserts new stock batches and returns the number of rows written.
	InsertBatches(ctx context.Context, tx pgx.Tx, batches []model.StockBatch) (int64, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)

	// CreateOrder inserts the order header within the provided transaction and
	// fills in the generated ID.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the order's line items within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order by its ID along with its lines.
	GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderLine, error)
}
