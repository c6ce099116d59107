// Package ledger defines the store ports the conversation engine writes
// through, and the error taxonomy shared by all backends.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrDuplicateGroup = errors.New("group already exists")
)

// Ports for ledger backends.
type (
	// UserStore owns per-user ledgers. AppendExpense creates the ledger
	// on first write; it is not idempotent, the engine guarantees at
	// most one call per completed conversation.
	UserStore interface {
		AppendExpense(ctx context.Context, id core.UserID, rec core.Record) error

		// History returns the user's records oldest first, or an empty
		// slice for an unknown user.
		History(ctx context.Context, id core.UserID) ([]core.Record, error)

		// Budgets returns the user's configured spending limits.
		Budgets(ctx context.Context, id core.UserID) (core.Budgets, error)

		// BaseCurrency returns the user's preferred report currency,
		// false when none has been chosen yet.
		BaseCurrency(ctx context.Context, id core.UserID) (string, bool, error)
		SetBaseCurrency(ctx context.Context, id core.UserID, code string) error
	}

	// GroupStore owns shared group ledgers, keyed by unique name.
	GroupStore interface {
		// Create fails with ErrDuplicateGroup for an existing name and
		// core.ErrInvalidGroupSize for size < 1.
		Create(ctx context.Context, name string, size int) error

		// Delete removes the group and all its expenses.
		Delete(ctx context.Context, name string) error

		// AddExpense atomically appends the record and increments the
		// running total, returning the new per-member share.
		AddExpense(ctx context.Context, name string, rec core.Record) (decimal.Decimal, error)

		Get(ctx context.Context, name string) (core.Group, error)
		Names(ctx context.Context) ([]string, error)
	}
)
