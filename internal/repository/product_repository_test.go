package repository

import (
	"context"
	"testing"

	"swimshop/internal/dbtest"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_GetPricing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewProductRepository(zerolog.Nop())
	ctx := context.Background()

	goggles, _ := dbtest.SeedProduct(t, pool, "Goggles", 120, 25)
	swimCap, _ := dbtest.SeedProduct(t, pool, "Cap", 8, 0)

	tests := []struct {
		name     string
		ids      []int64
		expected map[int64]int64
	}{
		{name: "all found", ids: []int64{goggles, swimCap}, expected: map[int64]int64{goggles: 120, swimCap: 8}},
		{name: "missing omitted", ids: []int64{goggles, 999999}, expected: map[int64]int64{goggles: 120}},
		{name: "empty", ids: nil, expected: map[int64]int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTx(t, pool, func(tx pgx.Tx) {
				products, err := repo.GetPricing(ctx, tx, tt.ids)
				require.NoError(t, err)

				prices := make(map[int64]int64, len(products))
				for id, p := range products {
					prices[id] = p.Price
				}
				assert.Equal(t, tt.expected, prices)
			})
		})
	}

	inTx(t, pool, func(tx pgx.Tx) {
		products, err := repo.GetPricing(ctx, tx, []int64{goggles})
		require.NoError(t, err)
		assert.Equal(t, 25, products[goggles].Discount)
		assert.Equal(t, "Goggles", products[goggles].Name)
	})
}
