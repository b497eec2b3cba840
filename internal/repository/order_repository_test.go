package repository

import (
	"context"
	"testing"
	"time"

	"swimshop/internal/dbtest"
	"swimshop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())
	ctx := context.Background()

	goggles, _ := dbtest.SeedProduct(t, pool, "Goggles", 100, 10)
	fins, _ := dbtest.SeedProduct(t, pool, "Fins", 50, 0)

	userID := int64(3)
	discount := decimal.NewFromInt(10)
	zero := decimal.Zero

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	require.NoError(t, err)

	order := &model.Order{UserID: &userID, Total: 330}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	assert.NotZero(t, order.ID)
	require.NotNil(t, order.CreatedAt)

	lines := []model.OrderLine{
		{OrderID: order.ID, ProductID: goggles, Quantity: 2, Price: decimal.NewFromInt(100), Discount: &discount},
		{OrderID: order.ID, ProductID: fins, Quantity: 3, Price: decimal.NewFromInt(50), Discount: &zero},
	}
	require.NoError(t, repo.CreateOrderLines(ctx, tx, lines))
	require.NoError(t, tx.Commit(ctx))

	got, gotLines, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, &userID, got.UserID)
	assert.Equal(t, int64(330), got.Total)
	require.NotNil(t, got.CreatedAt)
	assert.WithinDuration(t, *order.CreatedAt, *got.CreatedAt, time.Millisecond)

	require.Len(t, gotLines, 2)
	assert.Equal(t, goggles, gotLines[0].ProductID)
	assert.Equal(t, 2, gotLines[0].Quantity)
	assert.True(t, gotLines[0].Price.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, gotLines[0].Discount)
	assert.True(t, gotLines[0].Discount.Equal(discount))
	assert.Equal(t, fins, gotLines[1].ProductID)
	require.NotNil(t, gotLines[1].Discount)
	assert.True(t, gotLines[1].Discount.IsZero())
}

func TestOrderRepository_LinesStoreExactSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())
	ctx := context.Background()

	productID, _ := dbtest.SeedProduct(t, pool, "Goggles", 20, 0)
	price := decimal.RequireFromString("19.999")
	discount := decimal.RequireFromString("150.125")

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)

	order := &model.Order{Total: 0}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, []model.OrderLine{
		{OrderID: order.ID, ProductID: productID, Quantity: 1, Price: price, Discount: &discount},
	}))
	require.NoError(t, tx.Commit(ctx))

	_, lines, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Price.Equal(price), lines[0].Price.String())
	require.NotNil(t, lines[0].Discount)
	assert.True(t, lines[0].Discount.Equal(discount), lines[0].Discount.String())
}

func TestOrderRepository_AnonymousOrder(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)

	order := &model.Order{Total: 0}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, nil))
	require.NoError(t, tx.Commit(ctx))

	got, lines, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.UserID)
	assert.Empty(t, lines)
}

func TestOrderRepository_LegacySchema(t *testing.T) {
	pool := setupLegacyTestDB(t)
	repo := NewOrderRepository(pool, SchemaCapabilities{}, zerolog.Nop())
	ctx := context.Background()

	productID, _ := dbtest.SeedProduct(t, pool, "Cap", 8, 0)
	discount := decimal.NewFromInt(25)

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)

	order := &model.Order{Total: 6}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	assert.Nil(t, order.CreatedAt)

	require.NoError(t, repo.CreateOrderLines(ctx, tx, []model.OrderLine{
		{OrderID: order.ID, ProductID: productID, Quantity: 1, Price: decimal.NewFromInt(8), Discount: &discount},
	}))
	require.NoError(t, tx.Commit(ctx))

	got, lines, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CreatedAt)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].Discount)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(8)))
}

func TestOrderRepository_RollbackLeavesNothing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)

	order := &model.Order{Total: 10}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 0, dbtest.CountRows(t, pool, "orders"))
}

func TestOrderRepository_CreateOrderLines_UnknownProduct(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	order := &model.Order{Total: 10}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	err = repo.CreateOrderLines(ctx, tx, []model.OrderLine{
		{OrderID: order.ID, ProductID: 987654, Quantity: 1, Price: decimal.NewFromInt(10)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order line")
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, FullSchema, zerolog.Nop())

	order, lines, err := repo.GetByID(context.Background(), 123456)
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Nil(t, lines)
}
