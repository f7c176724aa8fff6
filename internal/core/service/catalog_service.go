package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
	"github.com/rl1809/product-catalog/internal/port"
	"github.com/rl1809/product-catalog/pkg/logger"
)

// CatalogService owns the catalog business rules: name uniqueness, timestamp
// assignment and existence-checked mutation. It keeps no state between calls.
type CatalogService struct {
	repo port.ProductRepository
	now  func() time.Time
	log  *logger.Logger
}

type Option func(*CatalogService)

// WithClock replaces the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *CatalogService) { s.log = l }
}

func NewCatalogService(repo port.ProductRepository, opts ...Option) *CatalogService {
	s := &CatalogService{
		repo: repo,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("catalog")
	return s
}

// timestamp is stored at microsecond precision in UTC so that values survive a
// SQL round trip unchanged.
func (s *CatalogService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *CatalogService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateName
	}

	now := s.timestamp()
	product := domain.Product{CreatedAt: now, UpdatedAt: now}
	in.Apply(&product)

	created, err := s.repo.Insert(ctx, product)
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateName) {
			s.log.WithContext(ctx).Errorw("insert product failed", "name", in.Name, "error", err)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.WithContext(ctx).Infow("product created", "id", created.ID, "name", created.Name)
	return created, nil
}

// GetByID returns nil without error when the ID does not resolve.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// GetByName returns nil without error when no product has that exact name.
func (s *CatalogService) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	p, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get product by name: %w", err)
	}
	return p, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	return wrapList("list products", products, err)
}

// Update overwrites every mutable field of an existing product.
func (s *CatalogService) Update(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}

	existing, err := s.mustFind(ctx, "update product", id)
	if err != nil {
		return nil, err
	}

	if existing.Name != in.Name {
		taken, err := s.repo.ExistsByName(ctx, in.Name)
		if err != nil {
			return nil, fmt.Errorf("update product %s: %w", id, err)
		}
		if taken {
			return nil, domain.ErrDuplicateName
		}
	}

	in.Apply(existing)
	existing.UpdatedAt = s.nextUpdate(existing.UpdatedAt)

	saved, err := s.repo.Save(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	s.log.WithContext(ctx).Infow("product updated", "id", saved.ID, "name", saved.Name)
	return saved, nil
}

// Delete removes a live product. Deleting an unknown or already deleted ID
// fails with domain.ErrNotFound.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.log.WithContext(ctx).Infow("product deleted", "id", id)
	return nil
}

func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.repo.FindByCategory(ctx, category)
	return wrapList("list by category", products, err)
}

// ListByPriceRange returns products with min <= price <= max.
func (s *CatalogService) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	if err := checkBounds(min, max); err != nil {
		return nil, err
	}
	products, err := s.repo.FindByPriceBetween(ctx, min, max)
	return wrapList("list by price range", products, err)
}

func (s *CatalogService) ListByPriceBelow(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	if err := checkBounds(price); err != nil {
		return nil, err
	}
	products, err := s.repo.FindByPriceLessThan(ctx, price)
	return wrapList("list by price below", products, err)
}

func (s *CatalogService) ListByPriceAbove(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	if err := checkBounds(price); err != nil {
		return nil, err
	}
	products, err := s.repo.FindByPriceGreaterThan(ctx, price)
	return wrapList("list by price above", products, err)
}

// ListWithStockBelow returns products whose stock is strictly below threshold.
func (s *CatalogService) ListWithStockBelow(ctx context.Context, threshold int) ([]domain.Product, error) {
	products, err := s.repo.FindByStockQuantityLessThan(ctx, threshold)
	return wrapList("list low stock", products, err)
}

// SearchByName is a case-insensitive substring search.
func (s *CatalogService) SearchByName(ctx context.Context, text string) ([]domain.Product, error) {
	products, err := s.repo.FindByNameContaining(ctx, text)
	return wrapList("search by name", products, err)
}

func (s *CatalogService) ListByCategoryAndPriceRange(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error) {
	if err := checkBounds(min, max); err != nil {
		return nil, err
	}
	products, err := s.repo.FindByCategoryAndPriceBetween(ctx, category, min, max)
	return wrapList("list by category and price range", products, err)
}

// UpdateStockQuantity sets the stock level and touches UpdatedAt only.
func (s *CatalogService) UpdateStockQuantity(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	existing, err := s.mustFind(ctx, "update stock", id)
	if err != nil {
		return nil, err
	}

	existing.StockQuantity = quantity
	existing.UpdatedAt = s.nextUpdate(existing.UpdatedAt)

	saved, err := s.repo.Save(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update stock %s: %w", id, err)
	}

	s.log.WithContext(ctx).Infow("stock updated", "id", saved.ID, "quantity", quantity)
	return saved, nil
}

func (s *CatalogService) mustFind(ctx context.Context, op, id string) (*domain.Product, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	return existing, nil
}

// nextUpdate never moves UpdatedAt backwards, even if the clock does.
func (s *CatalogService) nextUpdate(previous time.Time) time.Time {
	now := s.timestamp()
	if now.Before(previous) {
		return previous
	}
	return now
}

func checkInput(in domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !domain.WithinPriceScale(in.Price) {
		return fmt.Errorf("%w: price has more than %d decimal places", domain.ErrInvalidInput, domain.PriceScale)
	}
	return nil
}

// checkBounds rejects price bounds the SQL backends would round.
func checkBounds(bounds ...decimal.Decimal) error {
	for _, b := range bounds {
		if !domain.WithinPriceScale(b) {
			return fmt.Errorf("%w: price bound %s has more than %d decimal places", domain.ErrInvalidInput, b, domain.PriceScale)
		}
	}
	return nil
}

func wrapList(op string, products []domain.Product, err error) ([]domain.Product, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}
