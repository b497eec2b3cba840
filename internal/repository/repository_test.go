package repository

import (
	"context"
	"testing"

	"swimshop/internal/database"
	"swimshop/internal/dbtest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// setupTestDB starts a container with the current schema.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pg := dbtest.Start(t)
	require.NoError(t, database.Migrate(context.Background(), pg.Pool, zerolog.Nop()))

	return pg.Pool
}

// setupLegacyTestDB starts a container with the schema that predates the
// optional order columns.
func setupLegacyTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pg := dbtest.Start(t)
	dbtest.Exec(t, pg.Pool, dbtest.LegacySchema...)

	return pg.Pool
}

// inTx runs fn in a transaction that is rolled back unless fn commits it.
func inTx(t *testing.T, pool *pgxpool.Pool, fn func(tx pgx.Tx)) {
	t.Helper()

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	fn(tx)
}
