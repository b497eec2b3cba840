package service

import (
	"context"
	"fmt"

	"swimshop/internal/model"
	"swimshop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderWriter computes the total and persists the order header and lines.
type orderWriter struct {
	orders       repository.OrderRepository
	products     repository.ProductRepository
	verifyPrices bool
	logger       zerolog.Logger
}

func newOrderWriter(orders repository.OrderRepository, products repository.ProductRepository, verifyPrices bool, logger zerolog.Logger) *orderWriter {
	return &orderWriter{
		orders:       orders,
		products:     products,
		verifyPrices: verifyPrices,
		logger:       logger.With().Str("step", "order").Logger(),
	}
}

// Write inserts one order and one line per cart entry.
func (w *orderWriter) Write(ctx context.Context, tx pgx.Tx, userID *int64, items []model.CartItem) (*model.Order, []model.OrderLine, error) {
	if w.verifyPrices {
		var err error
		items, err = w.catalogPrices(ctx, tx, items)
		if err != nil {
			return nil, nil, err
		}
	}

	order := &model.Order{
		UserID: userID,
		Total:  OrderTotal(items),
	}

	if err := w.orders.CreateOrder(ctx, tx, order); err != nil {
		return nil, nil, err
	}

	// Lines keep price and discount as given; clamping only applies to totals.
	lines := make([]model.OrderLine, len(items))
	for i, item := range items {
		discount := item.Discount
		lines[i] = model.OrderLine{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.RequestedQuantity(),
			Price:     item.Price,
			Discount:  &discount,
		}
	}

	if err := w.orders.CreateOrderLines(ctx, tx, lines); err != nil {
		return nil, nil, err
	}

	w.logger.Debug().
		Int64("order_id", order.ID).
		Int64("total", order.Total).
		Int("lines", len(lines)).
		Msg("order written")

	return order, lines, nil
}

// catalogPrices replaces the caller's price and discount with catalog values.
func (w *orderWriter) catalogPrices(ctx context.Context, tx pgx.Tx, items []model.CartItem) ([]model.CartItem, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	pricing, err := w.products.GetPricing(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog prices: %w", err)
	}

	verified := make([]model.CartItem, len(items))
	for i, item := range items {
		p, ok := pricing[item.ProductID]
		if !ok {
			w.logger.Warn().Int64("product_id", item.ProductID).Msg("product not in catalog")
			return nil, model.ErrProductNotFound
		}
		if !item.Price.Equal(decimal.NewFromInt(p.Price)) || !item.Discount.Equal(decimal.NewFromInt(int64(p.Discount))) {
			w.logger.Info().
				Int64("product_id", item.ProductID).
				Str("cart_price", item.Price.String()).
				Int64("catalog_price", p.Price).
				Msg("cart price differs from catalog")
		}
		item.Price = decimal.NewFromInt(p.Price)
		item.Discount = decimal.NewFromInt(int64(p.Discount))
		verified[i] = item
	}

	return verified, nil
}
