package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

// ProductRepository is the persistence contract the catalog service depends on.
// Lookups return (nil, nil) when nothing matches. Backend failures surface as
// *domain.StorageError.
type ProductRepository interface {
	// Insert assigns an ID and stores a new product. It returns
	// domain.ErrDuplicateName when the store rejects the name.
	Insert(ctx context.Context, product domain.Product) (*domain.Product, error)

	// Save upserts a product by ID.
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)

	// DeleteByID removes a product, returning domain.ErrNotFound if it does not exist
	DeleteByID(ctx context.Context, id string) error

	FindByID(ctx context.Context, id string) (*domain.Product, error)
	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindByName matches the name exactly
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)

	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)

	// Price predicates are strict for LessThan/GreaterThan and inclusive for Between
	FindByPriceLessThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error)
	FindByPriceGreaterThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error)
	FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error)

	FindByStockQuantityLessThan(ctx context.Context, quantity int) ([]domain.Product, error)

	// FindByNameContaining is a case-insensitive substring match
	FindByNameContaining(ctx context.Context, text string) ([]domain.Product, error)

	FindByCategoryAndPriceBetween(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error)
}
