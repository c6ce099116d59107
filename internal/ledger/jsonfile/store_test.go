package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func record(t *testing.T, date, category, amount string) core.Record {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return core.Record{Date: d, Category: category, Amount: decimal.RequireFromString(amount)}
}

func TestUserRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := core.UserID(42)

	rec := record(t, "01-Jan-2025", "Food", "12.5")
	if err := s.AppendExpense(ctx, id, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Category != "Food" || !got[0].Amount.Equal(rec.Amount) {
		t.Fatalf("record changed in round trip: %+v", got[0])
	}
	if got[0].Date.Format(core.DateFormat) != "01-Jan-2025" {
		t.Fatalf("date changed in round trip: %s", got[0].Date)
	}
}

func TestUserFileFormat(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := s.AppendExpense(ctx, core.UserID(7), record(t, "01-Jan-2025", "Food", "12.5")); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("read users.json: %v", err)
	}
	var table map[string]struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		t.Fatalf("decode users.json: %v", err)
	}
	u, ok := table["7"]
	if !ok {
		t.Fatalf("user key must be the stringified id, got %v", table)
	}
	if len(u.Data) != 1 || u.Data[0] != "01-Jan-2025,Food,12.5" {
		t.Fatalf("unexpected record encoding: %v", u.Data)
	}
}

func TestHistoryUnknownUser(t *testing.T) {
	s := newStore(t)
	got, err := s.History(context.Background(), core.UserID(999))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d records", len(got))
	}
}

func TestGroupLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, "trip", 3); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, "trip", 2); !errors.Is(err, ledger.ErrDuplicateGroup) {
		t.Fatalf("expected ErrDuplicateGroup, got %v", err)
	}
	if err := s.Create(ctx, "bad", 0); !errors.Is(err, core.ErrInvalidGroupSize) {
		t.Fatalf("expected ErrInvalidGroupSize, got %v", err)
	}

	share, err := s.AddExpense(ctx, "trip", record(t, "01-Jan-2025", "Food", "50"))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if share.String() != "16.67" {
		t.Fatalf("expected share 16.67, got %s", share)
	}

	g, err := s.Get(ctx, "trip")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.TotalSpent.String() != "50" || len(g.Expenses) != 1 {
		t.Fatalf("total %s with %d expenses", g.TotalSpent, len(g.Expenses))
	}

	if err := s.Delete(ctx, "trip"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "trip"); !errors.Is(err, ledger.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound after delete, got %v", err)
	}
	if _, err := s.AddExpense(ctx, "trip", record(t, "01-Jan-2025", "Food", "5")); !errors.Is(err, ledger.ErrGroupNotFound) {
		t.Fatalf("append to deleted group must fail with ErrGroupNotFound, got %v", err)
	}
	if names, err := s.Names(ctx); err != nil || len(names) != 0 {
		t.Fatalf("deleted group still listed: %v (%v)", names, err)
	}
}

func TestGroupAddExpenseUnknownGroup(t *testing.T) {
	s := newStore(t)
	if _, err := s.AddExpense(context.Background(), "nope", record(t, "01-Jan-2025", "Food", "5")); !errors.Is(err, ledger.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupConcurrentAppends(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if err := s.Create(ctx, "shared", 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddExpense(ctx, "shared", record(t, "01-Jan-2025", "Food", "10")); err != nil {
				t.Errorf("add expense: %v", err)
			}
		}()
	}
	wg.Wait()

	g, err := s.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.TotalSpent.String() != "20" {
		t.Fatalf("lost update: total is %s, want 20", g.TotalSpent)
	}
	sum := decimal.Zero
	for _, e := range g.Expenses {
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(g.TotalSpent) {
		t.Fatalf("total %s does not match expense sum %s", g.TotalSpent, sum)
	}
}

func TestBaseCurrencyPreference(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := core.UserID(1)

	if _, ok, err := s.BaseCurrency(ctx, id); err != nil || ok {
		t.Fatalf("expected no preference yet (%v, %v)", ok, err)
	}
	if err := s.SetBaseCurrency(ctx, id, "EUR"); err != nil {
		t.Fatalf("set: %v", err)
	}
	code, ok, err := s.BaseCurrency(ctx, id)
	if err != nil || !ok || code != "EUR" {
		t.Fatalf("expected EUR, got %q (%v, %v)", code, ok, err)
	}
}

func TestBudgetsDecode(t *testing.T) {
	dir := t.TempDir()
	raw := `{"5": {"data": [], "budget": {"overall": "100", "category": {"Food": "40.5"}}}}`
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	b, err := s.Budgets(context.Background(), core.UserID(5))
	if err != nil {
		t.Fatalf("budgets: %v", err)
	}
	if !b.HasOverall || b.Overall.String() != "100" {
		t.Fatalf("overall budget: %+v", b)
	}
	if b.Category["Food"].String() != "40.5" {
		t.Fatalf("category budget: %+v", b)
	}
}
