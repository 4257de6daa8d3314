package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

type dialect struct {
	schema   []string
	textCast string // SQL type used to compare numbers as text
}

var dialects = map[string]dialect{
	"mysql": {
		schema: []string{`
			CREATE TABLE IF NOT EXISTS invoices (
				id          VARCHAR(36)  NOT NULL PRIMARY KEY,
				customer_id VARCHAR(255) NOT NULL,
				amount      BIGINT       NOT NULL,
				status      VARCHAR(16)  NOT NULL,
				date        VARCHAR(10)  NOT NULL,
				INDEX idx_invoices_date (date)
			)`,
		},
		textCast: "CHAR",
	},
	"postgres": {
		schema: []string{`
			CREATE TABLE IF NOT EXISTS invoices (
				id          VARCHAR(36)  NOT NULL PRIMARY KEY,
				customer_id VARCHAR(255) NOT NULL,
				amount      BIGINT       NOT NULL,
				status      VARCHAR(16)  NOT NULL,
				date        VARCHAR(10)  NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date)`,
		},
		textCast: "TEXT",
	},
	"sqlite3": {
		schema: []string{`
			CREATE TABLE IF NOT EXISTS invoices (
				id          TEXT    NOT NULL PRIMARY KEY,
				customer_id TEXT    NOT NULL,
				amount      INTEGER NOT NULL,
				status      TEXT    NOT NULL,
				date        TEXT    NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date)`,
		},
		textCast: "TEXT",
	},
}

// PoolConfig tunes the connection pool opened by Open.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to driver ("mysql", "postgres" or "sqlite3") and verifies the connection.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

type SQLAdapter struct {
	db      *sqlx.DB
	dialect dialect
}

func NewSQLAdapter(db *sqlx.DB) (*SQLAdapter, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, db.DriverName())
	}
	return &SQLAdapter{db: db, dialect: d}, nil
}

// Migrate creates the invoices table if it does not exist.
func (a *SQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range a.dialect.schema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (a *SQLAdapter) CreateInvoice(ctx context.Context, invoice domain.Invoice) error {
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO invoices (id, customer_id, amount, status, date)
		VALUES (:id, :customer_id, :amount, :status, :date)`,
		invoice,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (a *SQLAdapter) UpdateInvoice(ctx context.Context, id string, input domain.InvoiceInput) error {
	_, err := a.db.ExecContext(ctx, a.db.Rebind(`
		UPDATE invoices
		SET customer_id = ?, amount = ?, status = ?
		WHERE id = ?`),
		input.CustomerID, input.Amount, input.Status, id,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

func (a *SQLAdapter) DeleteInvoice(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, a.db.Rebind(`DELETE FROM invoices WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

func (a *SQLAdapter) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := a.db.GetContext(ctx, &inv, a.db.Rebind(`
		SELECT id, customer_id, amount, status, date
		FROM invoices WHERE id = ?`), id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}
	return &inv, nil
}

func (a *SQLAdapter) ListInvoices(ctx context.Context, query string, limit, offset int) ([]domain.Invoice, error) {
	where, args := a.searchClause(query)
	args = append(args, limit, offset)

	invoices := []domain.Invoice{}
	err := a.db.SelectContext(ctx, &invoices, a.db.Rebind(`
		SELECT id, customer_id, amount, status, date
		FROM invoices
		WHERE `+where+`
		ORDER BY date DESC, id ASC
		LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (a *SQLAdapter) CountInvoices(ctx context.Context, query string) (int, error) {
	where, args := a.searchClause(query)

	var count int
	err := a.db.GetContext(ctx, &count, a.db.Rebind(`SELECT COUNT(*) FROM invoices WHERE `+where), args...)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// likeEscaper escapes LIKE wildcards with '!', which every dialect reads
// literally inside a string constant.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchClause matches query case-insensitively against every listed column.
// The query is matched literally.
func (a *SQLAdapter) searchClause(query string) (string, []any) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	where := `(LOWER(customer_id) LIKE ? ESCAPE '!'
		OR LOWER(status) LIKE ? ESCAPE '!'
		OR CAST(amount AS ` + a.dialect.textCast + `) LIKE ? ESCAPE '!'
		OR date LIKE ? ESCAPE '!')`
	return where, []any{pattern, pattern, pattern, pattern}
}
