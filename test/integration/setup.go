package integration

import (
	"context"
	"net/http"
	"testing"

	"swimshop/internal/config"
	"swimshop/internal/database"
	"swimshop/internal/dbtest"
	"swimshop/internal/handler"
	"swimshop/internal/metrics"
	"swimshop/internal/repository"
	"swimshop/internal/router"
	"swimshop/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

// TestServer is the full HTTP stack over a throwaway database.
type TestServer struct {
	Handler  http.Handler
	Pool     *pgxpool.Pool
	Registry *prometheus.Registry
}

// SetupTestServer starts a migrated database and wires the real repositories,
// checkout service and router on top of it.
func SetupTestServer(t *testing.T, cfg config.CheckoutConfig) *TestServer {
	t.Helper()

	pg := dbtest.Start(t)
	require.NoError(t, database.Migrate(context.Background(), pg.Pool, zerolog.Nop()))

	return newTestServer(t, pg.Pool, cfg)
}

// SetupLegacyTestServer is SetupTestServer over the schema without the
// optional order columns.
func SetupLegacyTestServer(t *testing.T) *TestServer {
	t.Helper()

	pg := dbtest.Start(t)
	dbtest.Exec(t, pg.Pool, dbtest.LegacySchema...)

	return newTestServer(t, pg.Pool, config.CheckoutConfig{})
}

func newTestServer(t *testing.T, pool *pgxpool.Pool, cfg config.CheckoutConfig) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	caps, err := repository.ProbeSchema(ctx, pool, logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()

	checkout, err := service.NewCheckoutService(service.CheckoutDeps{
		Orders:   repository.NewOrderRepository(pool, caps, logger),
		Stock:    repository.NewStockRepository(logger),
		Products: repository.NewProductRepository(logger),
		Metrics:  metrics.NewCheckoutMetrics(registry),
	}, cfg, logger)
	require.NoError(t, err)

	orderHandler := handler.NewOrderHandler(checkout, logger)

	return &TestServer{
		Handler:  router.New(orderHandler, registry, testAPIKey, logger),
		Pool:     pool,
		Registry: registry,
	}
}
