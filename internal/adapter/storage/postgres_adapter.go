package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT          PRIMARY KEY,
		name           TEXT          NOT NULL,
		description    TEXT          NOT NULL DEFAULT '',
		price          NUMERIC(19,4) NOT NULL,
		category       TEXT          NOT NULL DEFAULT '',
		stock_quantity INTEGER       NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ   NOT NULL,
		updated_at     TIMESTAMPTZ   NOT NULL,
		CONSTRAINT uq_products_name UNIQUE (name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category_price ON products (category, price)`,
	`CREATE INDEX IF NOT EXISTS idx_products_price ON products (price)`,
}

var PostgresDialect = Dialect{
	Name:        "postgres",
	Placeholder: squirrel.Dollar,
	NameContains: func(pattern string) squirrel.Sqlizer {
		return squirrel.ILike{"name": pattern}
	},
	IsDuplicate: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
	Schema: postgresSchema,
}

func NewPostgresAdapter(db *sql.DB) *SQLAdapter {
	return NewSQLAdapter(db, PostgresDialect)
}

// OpenPostgres opens and pings a pooled connection through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
