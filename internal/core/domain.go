package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the on-disk date representation (e.g. "01-Jan-2025").
// It must not change: persisted ledgers depend on it.
const DateFormat = "02-Jan-2006"

// BaseCurrency is the currency expenses are recorded in.
const BaseCurrency = "USD"

type (
	// UserID identifies a chat user.
	UserID int64

	// Scope says whether an expense or report targets an individual
	// ledger or a shared group.
	Scope string

	// Record is a single expense entry, immutable once written.
	Record struct {
		Date     time.Time
		Category string
		Amount   decimal.Decimal
	}

	// Group is a shared ledger with a fixed member count.
	// TotalSpent is a cached running sum and always equals the sum of
	// Expenses amounts; stores mutate both together or not at all.
	Group struct {
		Name       string
		Size       int
		TotalSpent decimal.Decimal
		Expenses   []Record
	}

	// Budgets holds a user's spending limits.
	Budgets struct {
		Overall    decimal.Decimal
		HasOverall bool
		Category   map[string]decimal.Decimal
	}
)

const (
	ScopeIndividual Scope = "individual"
	ScopeGroup      Scope = "group"
)

var (
	ErrNotNumeric        = errors.New("not a numeric value")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrFutureDate        = errors.New("date is in the future")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidGroupSize  = errors.New("group size must be at least 1")
	ErrInvalidScope      = errors.New("scope must be individual or group")
)

func (u UserID) String() string {
	return fmt.Sprintf("%d", int64(u))
}

// ParseScope accepts "individual" or "group", case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ScopeIndividual):
		return ScopeIndividual, nil
	case string(ScopeGroup):
		return ScopeGroup, nil
	default:
		return "", ErrInvalidScope
	}
}

func (r Record) Validate() error {
	if r.Date.IsZero() {
		return errors.New("record date cannot be zero")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("record category cannot be empty")
	}
	if !r.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// PerMemberShare divides the group's running total by its member count,
// rounded half-up to two decimal places. Size is always >= 1 for a
// stored group, so the division cannot be by zero.
func (g Group) PerMemberShare() decimal.Decimal {
	return g.TotalSpent.DivRound(decimal.NewFromInt(int64(g.Size)), 2)
}
