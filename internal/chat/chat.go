// Package chat provides the advisory conversation: a financial status
// summary built from the user's ledger plus an Advisor that answers
// free-form questions against it.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/session"
)

// Advisor answers one advisory turn given the user's current position
// and the conversation so far. ok=false means no answer could be
// produced and the caller should apologize instead of inventing one.
type Advisor interface {
	Reply(ctx context.Context, status Status, turns []session.Turn) (string, bool)
}

// Status is a user's financial position distilled for the advisor.
type Status struct {
	TotalSpent     decimal.Decimal
	ByCategory     map[string]decimal.Decimal
	RecordCount    int
	Budgets        core.Budgets
	ReportCurrency string
}

// BuildStatus folds a user's history and budgets into a Status.
func BuildStatus(records []core.Record, budgets core.Budgets) Status {
	s := Status{
		ByCategory:     make(map[string]decimal.Decimal),
		Budgets:        budgets,
		ReportCurrency: core.BaseCurrency,
	}
	for _, r := range records {
		s.TotalSpent = s.TotalSpent.Add(r.Amount)
		s.ByCategory[r.Category] = s.ByCategory[r.Category].Add(r.Amount)
		s.RecordCount++
	}
	return s
}

// SystemPrompt renders the status as the opening turn of an advisory
// conversation.
func SystemPrompt(s Status) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. The user's current position:\n")
	fmt.Fprintf(&b, "- Recorded expenses: %d, totaling %s %s\n",
		s.RecordCount, s.TotalSpent.StringFixed(2), s.ReportCurrency)

	for _, cat := range sortedCategories(s.ByCategory) {
		fmt.Fprintf(&b, "- %s: %s %s\n", cat, s.ByCategory[cat].StringFixed(2), s.ReportCurrency)
	}

	if s.Budgets.HasOverall {
		remaining := s.Budgets.Overall.Sub(s.TotalSpent)
		fmt.Fprintf(&b, "- Overall budget: %s %s, remaining %s %s\n",
			s.Budgets.Overall.StringFixed(2), s.ReportCurrency,
			remaining.StringFixed(2), s.ReportCurrency)
	}
	for _, cat := range sortedCategories(s.Budgets.Category) {
		limit := s.Budgets.Category[cat]
		fmt.Fprintf(&b, "- Budget for %s: %s %s\n", cat, limit.StringFixed(2), s.ReportCurrency)
	}

	b.WriteString("Answer briefly and only about the user's spending.")
	return b.String()
}

func sortedCategories(m map[string]decimal.Decimal) []string {
	cats := make([]string, 0, len(m))
	for cat := range m {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}
