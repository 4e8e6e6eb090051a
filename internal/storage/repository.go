// Package storage provides the SQLite-backed ledger repository, an
// alternative to the JSON file stores for larger histories.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"moneybook/internal/core"
	"moneybook/internal/ledger"
	"moneybook/internal/log"
)

// SQLiteRepository implements every ledger port on a single database.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger

	mu     sync.Mutex
	lastID int64
	now    func() time.Time
}

var (
	_ ledger.TransactionWriter = (*SQLiteRepository)(nil)
	_ ledger.TransactionLister = (*SQLiteRepository)(nil)
	_ ledger.CategoryReader    = (*SQLiteRepository)(nil)
	_ ledger.AssetReader       = (*SQLiteRepository)(nil)
	_ ledger.AssetWriter       = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStore),
		now:    time.Now,
	}
	if err := r.loadLastID(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) loadLastID() error {
	rows, err := r.db.Query(`SELECT id FROM transactions`)
	if err != nil {
		return fmt.Errorf("scan existing IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan existing IDs: %w", err)
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > r.lastID {
			r.lastID = id
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append validates, assigns a timestamp-derived ID and inserts the entry.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	r.mu.Lock()
	now := r.now()
	id := now.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	r.mu.Unlock()

	t.ID = strconv.FormatInt(id, 10)
	t.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Amount.String(), t.Category, t.Description,
		t.Date.String(), t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "transaction appended",
		log.FieldTransaction, t.ID,
		log.FieldCategory, t.Category,
		log.FieldAmount, t.Amount.String(),
	)
	return t, nil
}

// List returns entries matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, type, amount, category, description, date, created_at
	          FROM transactions WHERE 1=1`
	var args []any
	if !f.StartDate.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.EndDate.String())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t                     core.Transaction
			typ, amount, date, at string
		)
		if err := rows.Scan(&t.ID, &typ, &amount, &t.Category, &t.Description, &date, &at); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount for %s: %w", t.ID, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse date for %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Categories returns the seeded category list ordered by ID.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Assets assembles the snapshot from the asset tables.
func (r *SQLiteRepository) Assets(ctx context.Context) (core.Assets, error) {
	snap := core.Assets{
		BankAccounts: []core.BankAccount{},
		Investments:  []core.Investment{},
		Other:        []core.OtherAsset{},
	}

	var cashAmount string
	err := r.db.QueryRowContext(ctx,
		`SELECT name, amount, currency FROM cash WHERE id = 1`).
		Scan(&snap.Cash.Name, &cashAmount, &snap.Cash.Currency)
	if err != nil {
		return core.Assets{}, fmt.Errorf("query cash: %w", err)
	}
	if snap.Cash.Amount, err = decimal.NewFromString(cashAmount); err != nil {
		return core.Assets{}, fmt.Errorf("parse cash amount: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount, account_number FROM bank_accounts ORDER BY id`)
	if err != nil {
		return core.Assets{}, fmt.Errorf("query bank accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			b      core.BankAccount
			amount string
		)
		if err := rows.Scan(&b.Name, &amount, &b.AccountNumber); err != nil {
			return core.Assets{}, fmt.Errorf("scan bank account: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return core.Assets{}, fmt.Errorf("parse account amount: %w", err)
		}
		snap.BankAccounts = append(snap.BankAccounts, b)
	}
	if err := rows.Err(); err != nil {
		return core.Assets{}, err
	}

	invRows, err := r.db.QueryContext(ctx,
		`SELECT name, quantity, current_price, amount FROM investments ORDER BY id`)
	if err != nil {
		return core.Assets{}, fmt.Errorf("query investments: %w", err)
	}
	defer invRows.Close()
	for invRows.Next() {
		var (
			i                  core.Investment
			qty, price, amount string
		)
		if err := invRows.Scan(&i.Name, &qty, &price, &amount); err != nil {
			return core.Assets{}, fmt.Errorf("scan investment: %w", err)
		}
		if i.Quantity, err = decimal.NewFromString(qty); err != nil {
			return core.Assets{}, fmt.Errorf("parse quantity: %w", err)
		}
		if i.CurrentPrice, err = decimal.NewFromString(price); err != nil {
			return core.Assets{}, fmt.Errorf("parse price: %w", err)
		}
		if i.Amount, err = decimal.NewFromString(amount); err != nil {
			return core.Assets{}, fmt.Errorf("parse investment amount: %w", err)
		}
		snap.Investments = append(snap.Investments, i)
	}
	if err := invRows.Err(); err != nil {
		return core.Assets{}, err
	}

	otherRows, err := r.db.QueryContext(ctx,
		`SELECT name, type, amount FROM other_assets ORDER BY id`)
	if err != nil {
		return core.Assets{}, fmt.Errorf("query other assets: %w", err)
	}
	defer otherRows.Close()
	for otherRows.Next() {
		var (
			o      core.OtherAsset
			amount string
		)
		if err := otherRows.Scan(&o.Name, &o.Type, &amount); err != nil {
			return core.Assets{}, fmt.Errorf("scan other asset: %w", err)
		}
		if o.Amount, err = decimal.NewFromString(amount); err != nil {
			return core.Assets{}, fmt.Errorf("parse other amount: %w", err)
		}
		snap.Other = append(snap.Other, o)
	}
	return snap, otherRows.Err()
}

// SetCash replaces the singleton cash row.
func (r *SQLiteRepository) SetCash(ctx context.Context, c core.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Currency == "" {
		c.Currency = "KRW"
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE cash SET name = ?, amount = ?, currency = ? WHERE id = 1`,
		c.Name, c.Amount.String(), c.Currency)
	if err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	return nil
}

// AddBankAccount inserts an account with its number masked.
func (r *SQLiteRepository) AddBankAccount(ctx context.Context, b core.BankAccount) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.AccountNumber = core.MaskAccountNumber(b.AccountNumber)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (name, amount, account_number) VALUES (?, ?, ?)`,
		b.Name, b.Amount.String(), b.AccountNumber)
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

// AddInvestment inserts a position, deriving its amount when absent.
func (r *SQLiteRepository) AddInvestment(ctx context.Context, i core.Investment) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.Amount = i.Value()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO investments (name, quantity, current_price, amount) VALUES (?, ?, ?, ?)`,
		i.Name, i.Quantity.String(), i.CurrentPrice.String(), i.Amount.String())
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

// AddOtherAsset inserts a free-form holding.
func (r *SQLiteRepository) AddOtherAsset(ctx context.Context, o core.OtherAsset) error {
	if err := o.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO other_assets (name, type, amount) VALUES (?, ?, ?)`,
		o.Name, o.Type, o.Amount.String())
	if err != nil {
		return fmt.Errorf("insert other asset: %w", err)
	}
	return nil
}
