package repository

import (
	"context"
	"fmt"

	"swimshop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// stockRepository implements StockRepository using PostgreSQL. All methods
// run inside the caller's transaction.
type stockRepository struct {
	logger zerolog.Logger
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
func NewStockRepository(logger zerolog.Logger) StockRepository {
	return &stockRepository{
		logger: logger.With().Str("repository", "stock").Logger(),
	}
}

// AvailableQuantities sums batch quantities per product.
func (r *stockRepository) AvailableQuantities(ctx context.Context, tx pgx.Tx, productIDs []int64) (map[int64]int, error) {
	available := make(map[int64]int, len(productIDs))
	if len(productIDs) == 0 {
		return available, nil
	}

	query := `
		SELECT product_id, COALESCE(SUM(quantity), 0)::BIGINT
		FROM storages
		WHERE product_id = ANY($1)
		GROUP BY product_id
	`

	rows, err := tx.Query(ctx, query, productIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(productIDs)).Msg("failed to query available stock")
		return nil, fmt.Errorf("failed to query available stock: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, total int64
		if err := rows.Scan(&productID, &total); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan available stock row")
			return nil, fmt.Errorf("failed to scan available stock: %w", err)
		}
		available[productID] = int(total)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating available stock rows")
		return nil, fmt.Errorf("error iterating available stock: %w", err)
	}

	return available, nil
}

// BatchesForAllocation lists the product's non-empty batches, largest first.
func (r *stockRepository) BatchesForAllocation(ctx context.Context, tx pgx.Tx, productID int64) ([]model.StockBatch, error) {
	query := `
		SELECT id, product_id, quantity
		FROM storages
		WHERE product_id = $1 AND quantity > 0
		ORDER BY quantity DESC, id ASC
	`

	rows, err := tx.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query stock batches")
		return nil, fmt.Errorf("failed to query stock batches: %w", err)
	}

	batches, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.StockBatch])
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to scan stock batches")
		return nil, fmt.Errorf("failed to scan stock batches: %w", err)
	}

	return batches, nil
}

// DecrementBatch removes quantity units from the batch if it still holds them.
func (r *stockRepository) DecrementBatch(ctx context.Context, tx pgx.Tx, batchID int64, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("invalid decrement quantity %d for stock batch %d", quantity, batchID)
	}

	query := `
		UPDATE storages
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
	`

	tag, err := tx.Exec(ctx, query, batchID, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("batch_id", batchID).
			Int("quantity", quantity).
			Msg("failed to decrement stock batch")
		return false, fmt.Errorf("failed to decrement stock batch: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Int64("batch_id", batchID).
			Int("quantity", quantity).
			Msg("stock batch no longer holds the requested quantity")
		return false, nil
	}

	return true, nil
}

// InsertBatches bulk-inserts new stock batches with COPY.
func (r *stockRepository) InsertBatches(ctx context.Context, tx pgx.Tx, batches []model.StockBatch) (int64, error) {
	if len(batches) == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"storages"},
		[]string{"product_id", "quantity"},
		pgx.CopyFromSlice(len(batches), func(i int) ([]any, error) {
			return []any{batches[i].ProductID, batches[i].Quantity}, nil
		}),
	)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(batches)).Msg("failed to insert stock batches")
		return 0, fmt.Errorf("failed to insert stock batches: %w", err)
	}

	r.logger.Debug().Int64("count", n).Msg("stock batches inserted")

	return n, nil
}
