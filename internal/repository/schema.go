package repository

import (
	"context"
	"fmt"

	"swimshop/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SchemaCapabilities records which optional order columns exist in the
// connected database. It is resolved once at startup.
type SchemaCapabilities struct {
	OrderCreatedAt    bool
	OrderLineDiscount bool
}

// FullSchema is the capability set of a fully migrated database.
var FullSchema = SchemaCapabilities{OrderCreatedAt: true, OrderLineDiscount: true}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ProbeSchema inspects information_schema for the optional columns.
func ProbeSchema(ctx context.Context, q Querier, logger zerolog.Logger) (SchemaCapabilities, error) {
	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND ((table_name = 'orders' AND column_name = 'created_at')
		    OR (table_name = 'order_items' AND column_name = 'discount'))
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		logger.Error().Err(err).Msg("failed to probe order schema")
		return SchemaCapabilities{}, fmt.Errorf("failed to probe order schema: %w", err)
	}
	defer rows.Close()

	var caps SchemaCapabilities
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return SchemaCapabilities{}, fmt.Errorf("failed to scan schema column: %w", err)
		}
		switch {
		case table == "orders" && column == "created_at":
			caps.OrderCreatedAt = true
		case table == "order_items" && column == "discount":
			caps.OrderLineDiscount = true
		}
	}

	if err := rows.Err(); err != nil {
		return SchemaCapabilities{}, fmt.Errorf("error iterating schema columns: %w", err)
	}

	logger.Info().
		Bool("orders_created_at", caps.OrderCreatedAt).
		Bool("order_items_discount", caps.OrderLineDiscount).
		Msg("order schema capabilities resolved")

	return caps, nil
}

// PrepareSchema migrates the database when autoMigrate is set and then probes
// the optional columns. Without migration an older schema is used as found.
func PrepareSchema(ctx context.Context, pool *pgxpool.Pool, autoMigrate bool, logger zerolog.Logger) (SchemaCapabilities, error) {
	if autoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return SchemaCapabilities{}, fmt.Errorf("failed to migrate database: %w", err)
		}
	} else {
		logger.Info().Msg("schema migration disabled")
	}

	return ProbeSchema(ctx, pool, logger)
}
