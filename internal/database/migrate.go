package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// migrations bring any database up to the current catalog and order schema.
// Line price and discount are unconstrained NUMERIC so the stored snapshot is
// exactly what the caller sent.
// Every statement is idempotent, so an older schema gains the optional
// columns without losing data.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		price INTEGER NOT NULL CHECK (price >= 0),
		discount INTEGER NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= 99),
		category_id BIGINT,
		manufacturer_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS storages (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_storages_product_id ON storages(product_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT,
		total BIGINT NOT NULL
	)`,
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price NUMERIC NOT NULL
	)`,
	`ALTER TABLE order_items ALTER COLUMN price TYPE NUMERIC`,
	`ALTER TABLE order_items ADD COLUMN IF NOT EXISTS discount NUMERIC`,
	`ALTER TABLE order_items ALTER COLUMN discount TYPE NUMERIC`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
}

// Migrate applies the schema migrations in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Error().Err(err).Int("step", i).Msg("schema migration failed")
			return fmt.Errorf("failed to apply migration %d: %w", i, err)
		}
	}

	logger.Info().Int("steps", len(migrations)).Msg("database schema is up to date")

	return nil
}
