package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// Binary collation keeps name uniqueness and category matching case-sensitive.
var mysqlSchema = []string{`
	CREATE TABLE IF NOT EXISTS products (
		id             CHAR(36)      NOT NULL,
		name           VARCHAR(255)  CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		description    TEXT          NOT NULL,
		price          DECIMAL(19,4) NOT NULL,
		category       VARCHAR(255)  NOT NULL DEFAULT '',
		stock_quantity INT           NOT NULL DEFAULT 0,
		created_at     DATETIME(6)   NOT NULL,
		updated_at     DATETIME(6)   NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_products_name (name),
		KEY idx_products_category_price (category, price),
		KEY idx_products_price (price)
	) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
}

var MySQLDialect = Dialect{
	Name:        "mysql",
	Placeholder: squirrel.Question,
	NameContains: func(pattern string) squirrel.Sqlizer {
		return squirrel.Like{"LOWER(name)": strings.ToLower(pattern)}
	},
	IsDuplicate: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
	},
	Schema: mysqlSchema,
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return NewSQLAdapter(db, MySQLDialect)
}

// OpenMySQL opens and pings a pooled MySQL connection. parseTime is always enabled.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return db, nil
}
