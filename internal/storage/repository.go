package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so lexical order of the stored text matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// legacyTimeLayout is what SQLite's CURRENT_TIMESTAMP produces.
const legacyTimeLayout = "2006-01-02 15:04:05"

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + dsnPragmas
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single connection: statements and transactions are serialized.
	// Queries issued while a transaction is open must go through it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}
	if err := r.refreshNameKeys(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("refresh account name keys: %w", err)
	}
	return r, nil
}

// refreshNameKeys rewrites name keys that do not match core.NameKey. SQL
// migrations can only fold ASCII, so rows they seeded are fixed up here.
func (r *SQLiteRepository) refreshNameKeys(ctx context.Context) error {
	return r.withTx(ctx, "refresh name keys", func(q *Queries) error {
		rows, err := q.ListAccountNameKeys(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			key := core.NameKey(row.Name)
			if key == row.NameKey {
				continue
			}
			if err := q.SetAccountNameKey(ctx, SetAccountNameKeyParams{NameKey: key, ID: row.ID}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.NewStorageError("ping", err)
	}
	return nil
}

// withTx runs fn inside a single SQL transaction. Any error from fn rolls the
// transaction back and is returned unchanged.
func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError(op, fmt.Errorf("begin: %w", err))
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewStorageError(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(legacyTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func toCoreAccount(a Account) (core.Account, error) {
	balance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse balance of account %d: %w", a.ID, err)
	}
	created, err := parseTime(a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{
		ID:        a.ID,
		Name:      a.Name,
		Type:      core.AccountType(a.Type),
		Balance:   balance,
		CreatedAt: created,
	}, nil
}

func toCoreTransaction(row TransactionRow) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount of transaction %d: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:        row.ID,
		Type:      core.TransactionType(row.Type),
		Amount:    amount,
		Note:      row.Note,
		CreatedAt: created,
		Category:  row.Category,
	}
	if row.AccountID.Valid {
		tx.AccountID = row.AccountID.Int64
		tx.AccountName = row.AccountName.String
		tx.AccountType = core.AccountType(row.AccountType.String)
	}
	return tx, nil
}

func nullAccountID(a *core.Account) sql.NullInt64 {
	if a == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: a.ID, Valid: true}
}
