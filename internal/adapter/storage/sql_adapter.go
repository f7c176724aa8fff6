package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

const productsTable = "products"

var productColumns = []string{
	"id", "name", "description", "price", "category", "stock_quantity", "created_at", "updated_at",
}

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	// NameContains builds the case-insensitive substring condition for an escaped LIKE pattern.
	NameContains func(pattern string) squirrel.Sqlizer
	IsDuplicate  func(err error) bool
	Schema       []string
}

// SQLAdapter implements the product repository on database/sql. The products
// table carries a UNIQUE(name) constraint which is the authoritative name
// uniqueness guarantee.
type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
	builder squirrel.StatementBuilderType
}

func NewSQLAdapter(db *sql.DB, dialect Dialect) *SQLAdapter {
	return &SQLAdapter{
		db:      db,
		dialect: dialect,
		builder: squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
	}
}

// EnsureSchema creates the products table and its indexes if they are missing.
func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure %s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *SQLAdapter) Insert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	query, args, err := s.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(product.ID, product.Name, product.Description, product.Price,
			product.Category, product.StockQuantity, product.CreatedAt, product.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, domain.NewStorageError("insert", fmt.Errorf("build query: %w", err))
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if s.dialect.IsDuplicate(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, domain.NewStorageError("insert", err)
	}

	return &product, nil
}

// Save updates the row in place and falls back to an insert when the ID is new.
func (s *SQLAdapter) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		return s.Insert(ctx, product)
	}

	query, args, err := s.builder.Update(productsTable).
		Set("name", product.Name).
		Set("description", product.Description).
		Set("price", product.Price).
		Set("category", product.Category).
		Set("stock_quantity", product.StockQuantity).
		Set("created_at", product.CreatedAt).
		Set("updated_at", product.UpdatedAt).
		Where(squirrel.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return nil, domain.NewStorageError("save", fmt.Errorf("build query: %w", err))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if s.dialect.IsDuplicate(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, domain.NewStorageError("save", err)
	}

	// MySQL reports zero affected rows for a no-op update, so confirm before inserting.
	if rows, _ := result.RowsAffected(); rows == 0 {
		exists, err := s.ExistsByID(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return s.Insert(ctx, product)
		}
	}

	return &product, nil
}

func (s *SQLAdapter) DeleteByID(ctx context.Context, id string) error {
	query, args, err := s.builder.Delete(productsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.NewStorageError("delete", fmt.Errorf("build query: %w", err))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewStorageError("delete", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.NewStorageError("delete", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *SQLAdapter) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.findOne(ctx, "find by id", squirrel.Eq{"id": id})
}

func (s *SQLAdapter) ExistsByID(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, "exists by id", squirrel.Eq{"id": id})
}

func (s *SQLAdapter) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.findOne(ctx, "find by name", squirrel.Eq{"name": name})
}

func (s *SQLAdapter) ExistsByName(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, "exists by name", squirrel.Eq{"name": name})
}

func (s *SQLAdapter) FindAll(ctx context.Context) ([]domain.Product, error) {
	return s.findMany(ctx, "find all", nil)
}

func (s *SQLAdapter) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.findMany(ctx, "find by category", squirrel.Eq{"category": category})
}

func (s *SQLAdapter) FindByPriceLessThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return s.findMany(ctx, "find by price less than", priceCompare("<", price))
}

func (s *SQLAdapter) FindByPriceGreaterThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return s.findMany(ctx, "find by price greater than", priceCompare(">", price))
}

func (s *SQLAdapter) FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	return s.findMany(ctx, "find by price between", priceRange(min, max))
}

func (s *SQLAdapter) FindByStockQuantityLessThan(ctx context.Context, quantity int) ([]domain.Product, error) {
	return s.findMany(ctx, "find by stock less than", squirrel.Lt{"stock_quantity": quantity})
}

func (s *SQLAdapter) FindByNameContaining(ctx context.Context, text string) ([]domain.Product, error) {
	return s.findMany(ctx, "find by name containing", s.dialect.NameContains(containsPattern(text)))
}

func (s *SQLAdapter) FindByCategoryAndPriceBetween(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error) {
	return s.findMany(ctx, "find by category and price between",
		squirrel.And{squirrel.Eq{"category": category}, priceRange(min, max)})
}

func (s *SQLAdapter) selectProducts() squirrel.SelectBuilder {
	return s.builder.Select(productColumns...).From(productsTable)
}

func (s *SQLAdapter) findOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Product, error) {
	query, args, err := s.selectProducts().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, domain.NewStorageError(op, fmt.Errorf("build query: %w", err))
	}

	var product domain.Product
	if err := sqlscan.Get(ctx, s.db, &product, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, domain.NewStorageError(op, err)
	}

	return &product, nil
}

func (s *SQLAdapter) findMany(ctx context.Context, op string, where squirrel.Sqlizer) ([]domain.Product, error) {
	q := s.selectProducts().OrderBy("name ASC")
	if where != nil {
		q = q.Where(where)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, domain.NewStorageError(op, fmt.Errorf("build query: %w", err))
	}

	products := []domain.Product{}
	if err := sqlscan.Select(ctx, s.db, &products, query, args...); err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	return products, nil
}

func (s *SQLAdapter) exists(ctx context.Context, op string, where squirrel.Sqlizer) (bool, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(productsTable).Where(where).ToSql()
	if err != nil {
		return false, domain.NewStorageError(op, fmt.Errorf("build query: %w", err))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, domain.NewStorageError(op, err)
	}

	return count > 0, nil
}

// priceCompare casts the bound so both MySQL and PostgreSQL compare as exact
// decimals rather than coercing a string parameter to a double.
func priceCompare(op string, bound decimal.Decimal) squirrel.Sqlizer {
	return squirrel.Expr("price "+op+" CAST(? AS DECIMAL(38,10))", bound.String())
}

func priceRange(min, max decimal.Decimal) squirrel.Sqlizer {
	return squirrel.And{priceCompare(">=", min), priceCompare("<=", max)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns text into a LIKE pattern that treats wildcards literally.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
