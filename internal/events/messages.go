package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
)

// ExpenseRecorded announces a successfully written expense. It carries
// the full record so consumers never need read access to the ledger.
type ExpenseRecorded struct {
	UserID    core.UserID     `json:"user_id"`
	Scope     core.Scope      `json:"scope"`
	GroupName string          `json:"group_name,omitempty"`
	Date      string          `json:"date"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewExpenseRecorded builds the event for a record written under the
// given scope. GroupName is empty for individual expenses.
func NewExpenseRecorded(userID core.UserID, scope core.Scope, groupName string, r core.Record) *ExpenseRecorded {
	return &ExpenseRecorded{
		UserID:    userID,
		Scope:     scope,
		GroupName: groupName,
		Date:      r.Date.Format(core.DateFormat),
		Category:  r.Category,
		Amount:    r.Amount,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedFromJSON(data []byte) (*ExpenseRecorded, error) {
	var msg ExpenseRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
