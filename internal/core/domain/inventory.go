package domain

import "github.com/shopspring/decimal"

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether min <= price <= max.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// LowStock reports whether the product has fewer than threshold units on hand.
func (p Product) LowStock(threshold int) bool {
	return p.StockQuantity < threshold
}
