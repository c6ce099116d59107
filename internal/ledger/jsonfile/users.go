package jsonfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
)

// userRecord is the on-disk shape of one user's ledger. The "data"
// field is the stable historical format; the remaining keys are
// optional and omitted when unset.
type userRecord struct {
	Data         []string          `json:"data"`
	Budget       *userBudget       `json:"budget,omitempty"`
	BaseCurrency string            `json:"base_currency,omitempty"`
}

type userBudget struct {
	Overall  string            `json:"overall,omitempty"`
	Category map[string]string `json:"category,omitempty"`
}

type userTable map[string]*userRecord

func (s *Store) AppendExpense(ctx context.Context, id core.UserID, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userTable{}
	if err := s.load(usersFile, &users); err != nil {
		return err
	}
	u, ok := users[id.String()]
	if !ok {
		u = &userRecord{Data: []string{}}
		users[id.String()] = u
	}
	u.Data = append(u.Data, encodeRecord(rec))
	return s.save(usersFile, users)
}

func (s *Store) History(ctx context.Context, id core.UserID) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userTable{}
	if err := s.load(usersFile, &users); err != nil {
		return nil, err
	}
	u, ok := users[id.String()]
	if !ok {
		return nil, nil
	}
	recs := make([]core.Record, 0, len(u.Data))
	for _, line := range u.Data {
		rec, err := decodeRecord(line)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", id, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Store) Budgets(ctx context.Context, id core.UserID) (core.Budgets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userTable{}
	if err := s.load(usersFile, &users); err != nil {
		return core.Budgets{}, err
	}
	u, ok := users[id.String()]
	if !ok || u.Budget == nil {
		return core.Budgets{}, nil
	}
	out := core.Budgets{Category: map[string]decimal.Decimal{}}
	if u.Budget.Overall != "" {
		overall, err := decimal.NewFromString(u.Budget.Overall)
		if err != nil {
			return core.Budgets{}, fmt.Errorf("user %s: overall budget: %w", id, err)
		}
		out.Overall = overall
		out.HasOverall = true
	}
	for cat, limit := range u.Budget.Category {
		d, err := decimal.NewFromString(limit)
		if err != nil {
			return core.Budgets{}, fmt.Errorf("user %s: budget for %s: %w", id, cat, err)
		}
		out.Category[cat] = d
	}
	return out, nil
}

func (s *Store) BaseCurrency(ctx context.Context, id core.UserID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userTable{}
	if err := s.load(usersFile, &users); err != nil {
		return "", false, err
	}
	u, ok := users[id.String()]
	if !ok || u.BaseCurrency == "" {
		return "", false, nil
	}
	return u.BaseCurrency, true, nil
}

func (s *Store) SetBaseCurrency(ctx context.Context, id core.UserID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userTable{}
	if err := s.load(usersFile, &users); err != nil {
		return err
	}
	u, ok := users[id.String()]
	if !ok {
		u = &userRecord{Data: []string{}}
		users[id.String()] = u
	}
	u.BaseCurrency = code
	return s.save(usersFile, users)
}

// encodeRecord joins the fields with commas. A category containing a
// comma would corrupt the record; this is a known limitation of the
// historical format.
func encodeRecord(rec core.Record) string {
	return fmt.Sprintf("%s,%s,%s", rec.Date.Format(core.DateFormat), rec.Category, rec.Amount.String())
}

func decodeRecord(line string) (core.Record, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return core.Record{}, fmt.Errorf("malformed record %q", line)
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Record{}, fmt.Errorf("malformed record date %q: %w", parts[0], err)
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return core.Record{}, fmt.Errorf("malformed record amount %q: %w", parts[2], err)
	}
	return core.Record{Date: date, Category: parts[1], Amount: amount}, nil
}
