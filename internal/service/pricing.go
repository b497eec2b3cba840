package service

import (
	"swimshop/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// clampDiscount keeps a percentage discount within [0, 100].
func clampDiscount(discount decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(hundred) {
		return hundred
	}
	return discount
}

// UnitPrice applies a percentage discount to price and rounds to a whole
// currency unit, halves away from zero.
func UnitPrice(price, discount decimal.Decimal) decimal.Decimal {
	d := clampDiscount(discount)
	return price.Mul(hundred.Sub(d)).Div(hundred).Round(0)
}

// LineTotal is the rounded unit price times the requested quantity.
func LineTotal(item model.CartItem) decimal.Decimal {
	return UnitPrice(item.Price, item.Discount).Mul(decimal.NewFromInt(int64(item.RequestedQuantity())))
}

// OrderTotal sums the line totals of the cart.
func OrderTotal(items []model.CartItem) int64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total.IntPart()
}
