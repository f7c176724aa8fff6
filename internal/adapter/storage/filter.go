package storage

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

// predicate selects products for the in-process query paths (memory, redis).
type predicate func(p domain.Product) bool

func filterProducts(products []domain.Product, match predicate) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

func categoryIs(category string) predicate {
	return func(p domain.Product) bool { return p.Category == category }
}

func priceBelow(price decimal.Decimal) predicate {
	return func(p domain.Product) bool { return p.Price.LessThan(price) }
}

func priceAbove(price decimal.Decimal) predicate {
	return func(p domain.Product) bool { return p.Price.GreaterThan(price) }
}

func priceBetween(min, max decimal.Decimal) predicate {
	r := domain.PriceRange{Min: min, Max: max}
	return func(p domain.Product) bool { return r.Contains(p.Price) }
}

func stockBelow(quantity int) predicate {
	return func(p domain.Product) bool { return p.LowStock(quantity) }
}

func nameContains(text string) predicate {
	needle := strings.ToLower(text)
	return func(p domain.Product) bool { return strings.Contains(strings.ToLower(p.Name), needle) }
}

func both(a, b predicate) predicate {
	return func(p domain.Product) bool { return a(p) && b(p) }
}
