package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"spendbook/internal/core"
	"spendbook/internal/log"
	"spendbook/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var _ store.Store = (*Repository)(nil)

// dialect holds the statements that differ between database engines.
type dialect struct {
	name      string
	selectAll string
	insert    string
}

var (
	sqliteDialect = dialect{
		name:      "sqlite",
		selectAll: `SELECT id, amount, category, date FROM expenses ORDER BY position`,
		insert:    `INSERT INTO expenses (position, id, amount, category, date) VALUES (?, ?, ?, ?, ?)`,
	}
	postgresDialect = dialect{
		name:      "postgres",
		selectAll: `SELECT id, amount::text, category, date FROM expenses ORDER BY position`,
		insert:    `INSERT INTO expenses (position, id, amount, category, date) VALUES ($1, $2, $3::text::numeric, $4, $5)`,
	}
)

const deleteExpenses = `DELETE FROM expenses`

// Repository stores the expense list in a SQL table. The list order is kept
// in the position column.
type Repository struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the delete and the inserts
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: sqliteDialect}, nil
}

func NewPostgresRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: postgresDialect}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Load(ctx context.Context) (core.ExpenseList, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.selectAll)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	list := core.ExpenseList{}
	for rows.Next() {
		var (
			e      core.Expense
			amount string
		)
		if err := rows.Scan(&e.ID, &amount, &e.Category, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return list, nil
}

// Save replaces the table content with list inside one transaction.
func (r *Repository) Save(ctx context.Context, list core.ExpenseList) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteExpenses); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range list {
		if _, err := stmt.ExecContext(ctx, i+1, e.ID, e.Amount.String(), e.Category, e.Date); err != nil {
			return fmt.Errorf("insert expense %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Expenses saved", log.NewFields().WithComponent(log.ComponentStorage).
		With(log.FieldBackend, r.dialect.name).With("count", len(list)).ToSlice()...)
	return nil
}
