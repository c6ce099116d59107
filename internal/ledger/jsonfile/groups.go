package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

// groupRecord is the on-disk shape of one group. Amounts serialize as
// bare JSON numbers to match the historical format.
type groupRecord struct {
	Size       int                  `json:"size"`
	TotalSpent json.Number          `json:"total_spent"`
	Expenses   []groupExpenseRecord `json:"expenses"`
}

type groupExpenseRecord struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type groupTable map[string]*groupRecord

func (s *Store) Create(ctx context.Context, name string, size int) error {
	if size < 1 {
		return core.ErrInvalidGroupSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := groupTable{}
	if err := s.load(groupsFile, &groups); err != nil {
		return err
	}
	if _, ok := groups[name]; ok {
		return ledger.ErrDuplicateGroup
	}
	groups[name] = &groupRecord{
		Size:       size,
		TotalSpent: json.Number("0"),
		Expenses:   []groupExpenseRecord{},
	}
	return s.save(groupsFile, groups)
}

func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := groupTable{}
	if err := s.load(groupsFile, &groups); err != nil {
		return err
	}
	if _, ok := groups[name]; !ok {
		return ledger.ErrGroupNotFound
	}
	delete(groups, name)
	return s.save(groupsFile, groups)
}

func (s *Store) AddExpense(ctx context.Context, name string, rec core.Record) (decimal.Decimal, error) {
	if err := rec.Validate(); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := groupTable{}
	if err := s.load(groupsFile, &groups); err != nil {
		return decimal.Zero, err
	}
	g, ok := groups[name]
	if !ok {
		return decimal.Zero, ledger.ErrGroupNotFound
	}

	total, err := decimal.NewFromString(g.TotalSpent.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("group %s: total_spent: %w", name, err)
	}
	total = total.Add(rec.Amount)

	// The appended record and the new running total are saved in one
	// write: the total always equals the sum of the expenses.
	g.Expenses = append(g.Expenses, groupExpenseRecord{
		Date:     rec.Date.Format(core.DateFormat),
		Category: rec.Category,
		Amount:   json.Number(rec.Amount.String()),
	})
	g.TotalSpent = json.Number(total.String())

	if err := s.save(groupsFile, groups); err != nil {
		return decimal.Zero, err
	}
	return total.DivRound(decimal.NewFromInt(int64(g.Size)), 2), nil
}

func (s *Store) Get(ctx context.Context, name string) (core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := groupTable{}
	if err := s.load(groupsFile, &groups); err != nil {
		return core.Group{}, err
	}
	g, ok := groups[name]
	if !ok {
		return core.Group{}, ledger.ErrGroupNotFound
	}
	return decodeGroup(name, g)
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := groupTable{}
	if err := s.load(groupsFile, &groups); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func decodeGroup(name string, g *groupRecord) (core.Group, error) {
	total, err := decimal.NewFromString(g.TotalSpent.String())
	if err != nil {
		return core.Group{}, fmt.Errorf("group %s: total_spent: %w", name, err)
	}
	out := core.Group{Name: name, Size: g.Size, TotalSpent: total}
	for _, e := range g.Expenses {
		date, err := core.ParseDate(e.Date)
		if err != nil {
			return core.Group{}, fmt.Errorf("group %s: expense date %q: %w", name, e.Date, err)
		}
		amount, err := decimal.NewFromString(e.Amount.String())
		if err != nil {
			return core.Group{}, fmt.Errorf("group %s: expense amount %q: %w", name, e.Amount, err)
		}
		out.Expenses = append(out.Expenses, core.Record{Date: date, Category: e.Category, Amount: amount})
	}
	return out, nil
}
