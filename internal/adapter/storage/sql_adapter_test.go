package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectAll = "SELECT id, name, description, price, category, stock_quantity, created_at, updated_at FROM products"

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"phone", "%phone%"},
		{"", "%%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\tmp`, `%c:\\tmp%`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.text), "text %q", tt.text)
	}
}

func TestPriceRange_Placeholders(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{MySQLDialect, selectAll + " WHERE (price >= CAST(? AS DECIMAL(38,10)) AND price <= CAST(? AS DECIMAL(38,10)))"},
		{PostgresDialect, selectAll + " WHERE (price >= CAST($1 AS DECIMAL(38,10)) AND price <= CAST($2 AS DECIMAL(38,10)))"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			a := NewSQLAdapter(nil, tt.dialect)
			query, args, err := a.selectProducts().Where(priceRange(dec("10"), dec("50.25"))).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []any{"10", "50.25"}, args)
		})
	}
}

func TestNameContains_Dialects(t *testing.T) {
	query, args, err := NewSQLAdapter(nil, MySQLDialect).selectProducts().
		Where(MySQLDialect.NameContains(containsPattern("Phone"))).ToSql()
	require.NoError(t, err)
	assert.Equal(t, selectAll+" WHERE LOWER(name) LIKE ?", query)
	assert.Equal(t, []any{"%phone%"}, args)

	query, args, err = NewSQLAdapter(nil, PostgresDialect).selectProducts().
		Where(PostgresDialect.NameContains(containsPattern("Phone"))).ToSql()
	require.NoError(t, err)
	assert.Equal(t, selectAll+" WHERE name ILIKE $1", query)
	assert.Equal(t, []any{"%Phone%"}, args)
}

func TestCategoryAndPriceRange_Postgres(t *testing.T) {
	a := NewSQLAdapter(nil, PostgresDialect)
	query, args, err := a.selectProducts().
		Where(squirrel.And{squirrel.Eq{"category": "Electronics"}, priceRange(dec("10"), dec("50"))}).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, selectAll+" WHERE (category = $1 AND (price >= CAST($2 AS DECIMAL(38,10)) AND price <= CAST($3 AS DECIMAL(38,10))))", query)
	assert.Equal(t, []any{"Electronics", "10", "50"}, args)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, MySQLDialect.IsDuplicate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, MySQLDialect.IsDuplicate(fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, MySQLDialect.IsDuplicate(&mysql.MySQLError{Number: 1146}))
	assert.False(t, MySQLDialect.IsDuplicate(errors.New("boom")))

	assert.True(t, PostgresDialect.IsDuplicate(&pgconn.PgError{Code: "23505"}))
	assert.False(t, PostgresDialect.IsDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.False(t, PostgresDialect.IsDuplicate(errors.New("boom")))
}
