package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

// MemoryAdapter keeps products in process. The name index is updated under the
// same lock as the records, so it enforces name uniqueness on its own.
type MemoryAdapter struct {
	mu     sync.RWMutex
	byID   map[string]domain.Product
	byName map[string]string
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		byID:   make(map[string]domain.Product),
		byName: make(map[string]string),
	}
}

func (m *MemoryAdapter) Insert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byName[product.Name]; taken {
		return nil, domain.ErrDuplicateName
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	m.byID[product.ID] = product
	m.byName[product.Name] = product.ID

	return &product, nil
}

func (m *MemoryAdapter) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		return m.Insert(ctx, product)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, taken := m.byName[product.Name]; taken && owner != product.ID {
		return nil, domain.ErrDuplicateName
	}

	if existing, ok := m.byID[product.ID]; ok && existing.Name != product.Name {
		delete(m.byName, existing.Name)
	}
	m.byID[product.ID] = product
	m.byName[product.Name] = product.ID

	return &product, nil
}

func (m *MemoryAdapter) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byName, existing.Name)

	return nil
}

func (m *MemoryAdapter) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryAdapter) ExistsByID(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byID[id]
	return ok, nil
}

func (m *MemoryAdapter) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[name]
	if !ok {
		return nil, nil
	}
	p := m.byID[id]
	return &p, nil
}

func (m *MemoryAdapter) ExistsByName(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byName[name]
	return ok, nil
}

func (m *MemoryAdapter) FindAll(ctx context.Context) ([]domain.Product, error) {
	return m.query(func(domain.Product) bool { return true }), nil
}

func (m *MemoryAdapter) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return m.query(categoryIs(category)), nil
}

func (m *MemoryAdapter) FindByPriceLessThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return m.query(priceBelow(price)), nil
}

func (m *MemoryAdapter) FindByPriceGreaterThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return m.query(priceAbove(price)), nil
}

func (m *MemoryAdapter) FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	return m.query(priceBetween(min, max)), nil
}

func (m *MemoryAdapter) FindByStockQuantityLessThan(ctx context.Context, quantity int) ([]domain.Product, error) {
	return m.query(stockBelow(quantity)), nil
}

func (m *MemoryAdapter) FindByNameContaining(ctx context.Context, text string) ([]domain.Product, error) {
	return m.query(nameContains(text)), nil
}

func (m *MemoryAdapter) FindByCategoryAndPriceBetween(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error) {
	return m.query(both(categoryIs(category), priceBetween(min, max))), nil
}

// query returns matching products ordered by name so results are stable.
func (m *MemoryAdapter) query(match predicate) []domain.Product {
	m.mu.RLock()
	all := make([]domain.Product, 0, len(m.byID))
	for _, p := range m.byID {
		all = append(all, p)
	}
	m.mu.RUnlock()

	out := filterProducts(all, match)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
