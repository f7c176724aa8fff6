package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a price may carry. It matches
// the DECIMAL(19,4) column of the SQL backends.
const PriceScale = 4

// WithinPriceScale reports whether d is representable with PriceScale decimal places.
func WithinPriceScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(PriceScale))
}

// Product is a single catalog record.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      string          `json:"category" db:"category"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductInput holds the caller-settable fields used by create and full update.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,notblank"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"dgt=0,dscale=4"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
}

// Apply overwrites the mutable fields of p with the input values.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.StockQuantity = in.StockQuantity
}
