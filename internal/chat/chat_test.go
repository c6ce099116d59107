package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/session"
)

func sampleRecords() []core.Record {
	date := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	return []core.Record{
		{Date: date, Category: "Food", Amount: decimal.RequireFromString("30")},
		{Date: date, Category: "Food", Amount: decimal.RequireFromString("20")},
		{Date: date, Category: "Transport", Amount: decimal.RequireFromString("10")},
	}
}

func TestBuildStatus(t *testing.T) {
	s := BuildStatus(sampleRecords(), core.Budgets{})
	if s.RecordCount != 3 {
		t.Errorf("record count = %d", s.RecordCount)
	}
	if !s.TotalSpent.Equal(decimal.RequireFromString("60")) {
		t.Errorf("total = %s", s.TotalSpent)
	}
	if !s.ByCategory["Food"].Equal(decimal.RequireFromString("50")) {
		t.Errorf("food total = %s", s.ByCategory["Food"])
	}
}

func TestSystemPromptIncludesBudget(t *testing.T) {
	budgets := core.Budgets{
		Overall:    decimal.RequireFromString("100"),
		HasOverall: true,
	}
	prompt := SystemPrompt(BuildStatus(sampleRecords(), budgets))
	for _, want := range []string{"60.00 USD", "Food: 50.00 USD", "remaining 40.00 USD"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestLocalAnswersCategoryQuestion(t *testing.T) {
	status := BuildStatus(sampleRecords(), core.Budgets{
		Category: map[string]decimal.Decimal{"Food": decimal.RequireFromString("40")},
	})
	reply, ok := NewLocal().Reply(context.Background(), status, []session.Turn{
		{Role: "user", Content: "how much did I spend on food?"},
	})
	if !ok {
		t.Fatal("expected an answer")
	}
	if !strings.Contains(reply, "50.00 USD") || !strings.Contains(reply, "over") {
		t.Errorf("reply = %q", reply)
	}
}

func TestLocalAnswersBudgetQuestion(t *testing.T) {
	status := BuildStatus(sampleRecords(), core.Budgets{
		Overall: decimal.RequireFromString("100"), HasOverall: true,
	})
	reply, ok := NewLocal().Reply(context.Background(), status, []session.Turn{
		{Role: "user", Content: "am I within budget?"},
	})
	if !ok || !strings.Contains(reply, "40.00 USD left") {
		t.Errorf("reply = %q, ok=%v", reply, ok)
	}
}

func TestLocalEmptyLedger(t *testing.T) {
	reply, ok := NewLocal().Reply(context.Background(), BuildStatus(nil, core.Budgets{}), []session.Turn{
		{Role: "user", Content: "anything?"},
	})
	if !ok || !strings.Contains(reply, "no recorded expenses") {
		t.Errorf("reply = %q, ok=%v", reply, ok)
	}
}
