package repository

import (
	"context"
	"fmt"

	"swimshop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(logger zerolog.Logger) ProductRepository {
	return &productRepository{
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetPricing returns pricing fields for the given product IDs.
func (r *productRepository) GetPricing(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.Product, error) {
	products := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `
		SELECT id, name, price, discount, category_id, manufacturer_id
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	for _, p := range list {
		products[p.ID] = p
	}

	if len(products) != len(ids) {
		r.logger.Debug().
			Int("expected", len(ids)).
			Int("found", len(products)).
			Msg("not all product IDs exist")
	}

	return products, nil
}
