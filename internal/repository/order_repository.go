package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swimshop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
// Column sets follow the capabilities resolved at startup.
type orderRepository struct {
	pool   *pgxpool.Pool
	caps   SchemaCapabilities
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, caps SchemaCapabilities, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		caps:   caps,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts the order header and sets order.ID. When the schema has
// no created_at column, order.CreatedAt is cleared.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	var row pgx.Row
	if r.caps.OrderCreatedAt {
		if order.CreatedAt == nil {
			now := time.Now().UTC()
			order.CreatedAt = &now
		}
		row = tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, total, created_at) VALUES ($1, $2, $3) RETURNING id`,
			order.UserID, order.Total, *order.CreatedAt,
		)
	} else {
		order.CreatedAt = nil
		row = tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, total) VALUES ($1, $2) RETURNING id`,
			order.UserID, order.Total,
		)
	}

	if err := row.Scan(&order.ID); err != nil {
		r.logger.Error().
			Err(err).
			Int64("total", order.Total).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts the order lines in a single batch.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, line := range lines {
		if r.caps.OrderLineDiscount {
			batch.Queue(
				`INSERT INTO order_items (order_id, product_id, quantity, price, discount) VALUES ($1, $2, $3, $4, $5)`,
				line.OrderID, line.ProductID, line.Quantity, line.Price, line.Discount,
			)
		} else {
			batch.Queue(
				`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
				line.OrderID, line.ProductID, line.Quantity, line.Price,
			)
		}
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range lines {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", lines[i].OrderID).
				Int64("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderLine, error) {
	orderQuery := `SELECT id, user_id, total FROM orders WHERE id = $1`
	if r.caps.OrderCreatedAt {
		orderQuery = `SELECT id, user_id, total, created_at FROM orders WHERE id = $1`
	}

	var order model.Order
	dest := []any{&order.ID, &order.UserID, &order.Total}
	if r.caps.OrderCreatedAt {
		dest = append(dest, &order.CreatedAt)
	}

	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	linesQuery := `
		SELECT id, order_id, product_id, quantity, price, NULL::NUMERIC
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	if r.caps.OrderLineDiscount {
		linesQuery = `
			SELECT id, order_id, product_id, quantity, price, discount
			FROM order_items
			WHERE order_id = $1
			ORDER BY id
		`
	}

	rows, err := r.pool.Query(ctx, linesQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", id).
			Msg("failed to query order lines")
		return nil, nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := []model.OrderLine{}
	for rows.Next() {
		var line model.OrderLine
		var discount decimal.NullDecimal
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.Price, &discount); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if discount.Valid {
			d := discount.Decimal
			line.Discount = &d
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return &order, lines, nil
}
