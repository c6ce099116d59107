package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/session"
)

// Local is a rule-based advisor that answers from the ledger alone,
// used when no external model is configured.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (l *Local) Reply(ctx context.Context, status Status, turns []session.Turn) (string, bool) {
	question := lastUserTurn(turns)
	if question == "" {
		return "", false
	}
	if status.RecordCount == 0 {
		return "You have no recorded expenses yet, so there is nothing to analyze. Record a few and ask again.", true
	}

	q := strings.ToLower(question)

	for cat, total := range status.ByCategory {
		if strings.Contains(q, strings.ToLower(cat)) {
			return l.categoryAnswer(status, cat, total), true
		}
	}
	if strings.Contains(q, "budget") {
		return l.budgetAnswer(status), true
	}
	if strings.Contains(q, "most") || strings.Contains(q, "biggest") {
		return l.topCategoryAnswer(status), true
	}
	return l.overallAnswer(status), true
}

func (l *Local) categoryAnswer(status Status, cat string, total decimal.Decimal) string {
	answer := fmt.Sprintf("You have spent %s %s on %s.",
		total.StringFixed(2), status.ReportCurrency, cat)
	if limit, ok := status.Budgets.Category[cat]; ok {
		remaining := limit.Sub(total)
		if remaining.IsNegative() {
			answer += fmt.Sprintf(" That is %s %s over your %s budget.",
				remaining.Neg().StringFixed(2), status.ReportCurrency, cat)
		} else {
			answer += fmt.Sprintf(" You have %s %s left of your %s budget.",
				remaining.StringFixed(2), status.ReportCurrency, cat)
		}
	}
	return answer
}

func (l *Local) budgetAnswer(status Status) string {
	if !status.Budgets.HasOverall {
		return "You have not set an overall budget. Your total spending so far is " +
			status.TotalSpent.StringFixed(2) + " " + status.ReportCurrency + "."
	}
	remaining := status.Budgets.Overall.Sub(status.TotalSpent)
	if remaining.IsNegative() {
		return fmt.Sprintf("You are %s %s over your overall budget of %s %s.",
			remaining.Neg().StringFixed(2), status.ReportCurrency,
			status.Budgets.Overall.StringFixed(2), status.ReportCurrency)
	}
	return fmt.Sprintf("You have %s %s left of your overall budget of %s %s.",
		remaining.StringFixed(2), status.ReportCurrency,
		status.Budgets.Overall.StringFixed(2), status.ReportCurrency)
}

func (l *Local) topCategoryAnswer(status Status) string {
	top := ""
	max := decimal.Zero
	for _, cat := range sortedCategories(status.ByCategory) {
		if total := status.ByCategory[cat]; total.GreaterThan(max) {
			top, max = cat, total
		}
	}
	return fmt.Sprintf("Your biggest category is %s at %s %s.",
		top, max.StringFixed(2), status.ReportCurrency)
}

func (l *Local) overallAnswer(status Status) string {
	return fmt.Sprintf("You have %d recorded expenses totaling %s %s across %d categories. Ask about a category or your budget for details.",
		status.RecordCount, status.TotalSpent.StringFixed(2),
		status.ReportCurrency, len(status.ByCategory))
}

func lastUserTurn(turns []session.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return strings.TrimSpace(turns[i].Content)
		}
	}
	return ""
}
