package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
)

func TestNewExpenseRecorded(t *testing.T) {
	r := core.Record{
		Date:     time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Category: "Food",
		Amount:   decimal.RequireFromString("12.50"),
	}

	msg := NewExpenseRecorded(7, core.ScopeGroup, "trip", r)

	if msg.UserID != 7 {
		t.Errorf("UserID = %v", msg.UserID)
	}
	if msg.Scope != core.ScopeGroup || msg.GroupName != "trip" {
		t.Errorf("scope = %v group = %q", msg.Scope, msg.GroupName)
	}
	if msg.Date != "01-Mar-2025" {
		t.Errorf("Date = %q", msg.Date)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestExpenseRecordedJSON(t *testing.T) {
	msg := &ExpenseRecorded{
		UserID:    42,
		Scope:     core.ScopeIndividual,
		Date:      "01-Jan-2025",
		Category:  "Transport",
		Amount:    decimal.RequireFromString("4.20"),
		Timestamp: time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseRecordedFromJSON(body)
	if err != nil {
		t.Fatalf("ExpenseRecordedFromJSON() error = %v", err)
	}
	if parsed.UserID != msg.UserID || parsed.Category != msg.Category {
		t.Errorf("parsed = %+v", parsed)
	}
	if !parsed.Amount.Equal(msg.Amount) {
		t.Errorf("Amount = %v, want %v", parsed.Amount, msg.Amount)
	}
}

func TestExpenseRecordedInvalidJSON(t *testing.T) {
	if _, err := ExpenseRecordedFromJSON([]byte(`{"user_id": "nope"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
