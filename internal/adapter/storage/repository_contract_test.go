package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/product-catalog/internal/core/domain"
	"github.com/rl1809/product-catalog/internal/port"
)

// runRepositoryContract exercises the behaviour every backend must share.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) port.ProductRepository) {
	t.Run("InsertAndFind", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, sampleProduct("Laptop", "Electronics", "999.99", 5))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		byID, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assertSameProduct(t, *created, *byID)

		byName, err := repo.FindByName(ctx, "Laptop")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, created.ID, byName.ID)

		exists, err := repo.ExistsByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "Laptop")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("MissingLookupsReturnNil", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p, err := repo.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, p)

		p, err = repo.FindByName(ctx, "nothing")
		require.NoError(t, err)
		assert.Nil(t, p)

		exists, err := repo.ExistsByName(ctx, "nothing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("NameIsUnique", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Insert(ctx, sampleProduct("Mouse", "Electronics", "25.50", 100))
		require.NoError(t, err)

		_, err = repo.Insert(ctx, sampleProduct("Mouse", "Other", "1", 1))
		assert.ErrorIs(t, err, domain.ErrDuplicateName)

		// Case differs, so this is a different name.
		_, err = repo.Insert(ctx, sampleProduct("mouse", "Other", "1", 1))
		assert.NoError(t, err)
	})

	t.Run("SaveRenamesAndReleasesOldName", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, sampleProduct("Old", "A", "10", 1))
		require.NoError(t, err)

		created.Name = "New"
		created.StockQuantity = 7
		saved, err := repo.Save(ctx, *created)
		require.NoError(t, err)
		assert.Equal(t, "New", saved.Name)

		old, err := repo.FindByName(ctx, "Old")
		require.NoError(t, err)
		assert.Nil(t, old)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "New", found.Name)
		assert.Equal(t, 7, found.StockQuantity)

		_, err = repo.Insert(ctx, sampleProduct("Old", "A", "10", 1))
		assert.NoError(t, err)
	})

	t.Run("SaveRejectsNameOfAnotherProduct", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Insert(ctx, sampleProduct("First", "A", "1", 1))
		require.NoError(t, err)
		second, err := repo.Insert(ctx, sampleProduct("Second", "A", "1", 1))
		require.NoError(t, err)

		second.Name = "First"
		_, err = repo.Save(ctx, *second)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, sampleProduct("Gone", "A", "1", 1))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, created.ID))
		assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), domain.ErrNotFound)

		exists, err := repo.ExistsByName(ctx, "Gone")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Queries", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, p := range []domain.Product{
			sampleProduct("Laptop", "Electronics", "999.99", 5),
			sampleProduct("Mouse", "Electronics", "25.50", 100),
			sampleProduct("Book", "Books", "15.00", 20),
			sampleProduct("100% Cotton Shirt", "Clothing", "50", 0),
		} {
			_, err := repo.Insert(ctx, p)
			require.NoError(t, err)
		}

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton Shirt", "Book", "Laptop", "Mouse"}, names(all))

		got, err := repo.FindByCategory(ctx, "Electronics")
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop", "Mouse"}, names(got))

		got, err = repo.FindByCategory(ctx, "electronics")
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.FindByPriceLessThan(ctx, dec("25.50"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Book"}, names(got))

		got, err = repo.FindByPriceGreaterThan(ctx, dec("50"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop"}, names(got))

		// Both bounds are inclusive.
		got, err = repo.FindByPriceBetween(ctx, dec("15"), dec("50.00"))
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton Shirt", "Book", "Mouse"}, names(got))

		got, err = repo.FindByStockQuantityLessThan(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton Shirt", "Laptop"}, names(got))

		got, err = repo.FindByNameContaining(ctx, "OU")
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse"}, names(got))

		got, err = repo.FindByNameContaining(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton Shirt"}, names(got))

		got, err = repo.FindByCategoryAndPriceBetween(ctx, "Electronics", dec("10"), dec("50"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Mouse"}, names(got))
	})

	t.Run("FullScalePricesAreExact", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		grain := sampleProduct("Grain", "Bulk", "0.0001", 1)
		created, err := repo.Insert(ctx, grain)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, sampleProduct("Ingot", "Bulk", "1234.5678", 1))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, sampleProduct("Nugget", "Bulk", "1234.5679", 1))
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assertSameProduct(t, *created, *found)

		got, err := repo.FindByPriceLessThan(ctx, dec("0.0002"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Grain"}, names(got))

		got, err = repo.FindByPriceBetween(ctx, dec("1234.5678"), dec("1234.5678"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Ingot"}, names(got))

		got, err = repo.FindByPriceGreaterThan(ctx, dec("1234.5678"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Nugget"}, names(got))
	})

	t.Run("EmptyResultsAreNotNil", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.FindByCategory(context.Background(), "none")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func sampleProduct(name, category, price string, stock int) domain.Product {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)
	return domain.Product{
		Name:          name,
		Description:   name + " description",
		Price:         dec(price),
		Category:      category,
		StockQuantity: stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func names(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

// assertSameProduct compares field by field, treating decimals and times by value.
func assertSameProduct(t *testing.T, want, got domain.Product) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Description, got.Description)
	assert.True(t, want.Price.Equal(got.Price), "price: want %s, got %s", want.Price, got.Price)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.StockQuantity, got.StockQuantity)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}
