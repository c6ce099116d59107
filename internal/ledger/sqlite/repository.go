// Package sqlite implements the ledger stores on an embedded SQLite
// database. Unlike the jsonfile backend it appends rows instead of
// rewriting whole files; the group running total still mutates in the
// same transaction as the appended expense.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) AppendExpense(ctx context.Context, id core.UserID, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_expenses (user_id, recorded_on, category, amount) VALUES (?, ?, ?, ?)`,
		int64(id), rec.Date.Format(core.DateFormat), rec.Category, rec.Amount.String())
	if err != nil {
		return fmt.Errorf("insert user expense: %w", err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, id core.UserID) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recorded_on, category, amount FROM user_expenses WHERE user_id = ? ORDER BY id`,
		int64(id))
	if err != nil {
		return nil, fmt.Errorf("query user expenses: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *Repository) Budgets(ctx context.Context, id core.UserID) (core.Budgets, error) {
	out := core.Budgets{Category: map[string]decimal.Decimal{}}

	var overall string
	err := r.db.QueryRowContext(ctx,
		`SELECT overall_budget FROM user_prefs WHERE user_id = ?`, int64(id)).Scan(&overall)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.Budgets{}, fmt.Errorf("query overall budget: %w", err)
	}
	if overall != "" {
		d, err := decimal.NewFromString(overall)
		if err != nil {
			return core.Budgets{}, fmt.Errorf("overall budget for user %s: %w", id, err)
		}
		out.Overall = d
		out.HasOverall = true
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, spend_limit FROM user_budgets WHERE user_id = ?`, int64(id))
	if err != nil {
		return core.Budgets{}, fmt.Errorf("query category budgets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, limit string
		if err := rows.Scan(&category, &limit); err != nil {
			return core.Budgets{}, fmt.Errorf("scan category budget: %w", err)
		}
		d, err := decimal.NewFromString(limit)
		if err != nil {
			return core.Budgets{}, fmt.Errorf("budget for %s: %w", category, err)
		}
		out.Category[category] = d
	}
	return out, rows.Err()
}

func (r *Repository) BaseCurrency(ctx context.Context, id core.UserID) (string, bool, error) {
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT base_currency FROM user_prefs WHERE user_id = ?`, int64(id)).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && code == "") {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query base currency: %w", err)
	}
	return code, true, nil
}

func (r *Repository) SetBaseCurrency(ctx context.Context, id core.UserID, code string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_prefs (user_id, base_currency) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET base_currency = excluded.base_currency`,
		int64(id), code)
	if err != nil {
		return fmt.Errorf("set base currency: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, name string, size int) error {
	if size < 1 {
		return core.ErrInvalidGroupSize
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expense_groups (name, size) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, size)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	if affected == 0 {
		return ledger.ErrDuplicateGroup
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expense_groups WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if affected == 0 {
		return ledger.ErrGroupNotFound
	}
	return nil
}

func (r *Repository) AddExpense(ctx context.Context, name string, rec core.Record) (decimal.Decimal, error) {
	if err := rec.Validate(); err != nil {
		return decimal.Zero, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var size int
	var totalStr string
	err = tx.QueryRowContext(ctx,
		`SELECT size, total_spent FROM expense_groups WHERE name = ?`, name).Scan(&size, &totalStr)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrGroupNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query group: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("group %s: total_spent: %w", name, err)
	}
	total = total.Add(rec.Amount)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_expenses (group_name, recorded_on, category, amount) VALUES (?, ?, ?, ?)`,
		name, rec.Date.Format(core.DateFormat), rec.Category, rec.Amount.String()); err != nil {
		return decimal.Zero, fmt.Errorf("insert group expense: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE expense_groups SET total_spent = ? WHERE name = ?`,
		total.String(), name); err != nil {
		return decimal.Zero, fmt.Errorf("update running total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}

	return total.DivRound(decimal.NewFromInt(int64(size)), 2), nil
}

func (r *Repository) Get(ctx context.Context, name string) (core.Group, error) {
	var size int
	var totalStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT size, total_spent FROM expense_groups WHERE name = ?`, name).Scan(&size, &totalStr)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, ledger.ErrGroupNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("query group: %w", err)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return core.Group{}, fmt.Errorf("group %s: total_spent: %w", name, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT recorded_on, category, amount FROM group_expenses WHERE group_name = ? ORDER BY id`,
		name)
	if err != nil {
		return core.Group{}, fmt.Errorf("query group expenses: %w", err)
	}
	defer rows.Close()
	expenses, err := scanRecords(rows)
	if err != nil {
		return core.Group{}, err
	}

	return core.Group{Name: name, Size: size, TotalSpent: total, Expenses: expenses}, nil
}

func (r *Repository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM expense_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query group names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]core.Record, error) {
	var out []core.Record
	for rows.Next() {
		var dateStr, category, amountStr string
		if err := rows.Scan(&dateStr, &category, &amountStr); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("expense date %q: %w", dateStr, err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("expense amount %q: %w", amountStr, err)
		}
		out = append(out, core.Record{Date: date, Category: category, Amount: amount})
	}
	return out, rows.Err()
}
