// Package dbtest starts throwaway PostgreSQL containers for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres is a running test database.
type Postgres struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// Start runs a postgres:16-alpine container and returns a pool connected to it.
// The container is terminated when the test finishes.
func Start(t *testing.T) *Postgres {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &Postgres{
		Container: pgContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Exec runs each statement and fails the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, statements ...string) {
	t.Helper()

	for _, stmt := range statements {
		_, err := pool.Exec(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
}

// LegacySchema is the order schema before the created_at and discount
// columns were introduced.
var LegacySchema = []string{
	`CREATE TABLE products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price INTEGER NOT NULL,
		discount INTEGER NOT NULL DEFAULT 0,
		category_id BIGINT,
		manufacturer_id BIGINT
	)`,
	`CREATE TABLE storages (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	)`,
	`CREATE TABLE orders (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT,
		total BIGINT NOT NULL
	)`,
	`CREATE TABLE order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		price NUMERIC(12,2) NOT NULL
	)`,
}

// SeedProduct inserts a product with the given batch quantities and returns
// the product id and the batch ids in insertion order.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, price, discount int, batches ...int) (int64, []int64) {
	t.Helper()

	ctx := context.Background()

	var productID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO products (name, price, discount) VALUES ($1, $2, $3) RETURNING id`,
		name, price, discount,
	).Scan(&productID)
	require.NoError(t, err)

	batchIDs := make([]int64, 0, len(batches))
	for _, qty := range batches {
		var id int64
		err := pool.QueryRow(ctx,
			`INSERT INTO storages (product_id, quantity) VALUES ($1, $2) RETURNING id`,
			productID, qty,
		).Scan(&id)
		require.NoError(t, err)
		batchIDs = append(batchIDs, id)
	}

	return productID, batchIDs
}

// BatchQuantities returns batch id -> quantity for a product.
func BatchQuantities(t *testing.T, pool *pgxpool.Pool, productID int64) map[int64]int {
	t.Helper()

	rows, err := pool.Query(context.Background(),
		`SELECT id, quantity FROM storages WHERE product_id = $1`, productID)
	require.NoError(t, err)
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var qty int
		require.NoError(t, rows.Scan(&id, &qty))
		out[id] = qty
	}
	require.NoError(t, rows.Err())

	return out
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
