// Package session holds the transient per-user conversation state.
// All captured context travels as data on the Session record, looked up
// by user id at each step, instead of living in handler closures.
package session

import (
	"time"

	"ledgerbot/internal/core"
)

// Flow identifies which conversation a user is in.
type Flow string

const (
	FlowAdd      Flow = "add"
	FlowHistory  Flow = "history"
	FlowGroup    Flow = "group"
	FlowCalc     Flow = "calc"
	FlowAdvisory Flow = "advisory"
)

// Step identifies the pending prompt inside a flow. A session's step
// only ever advances or terminates; it never silently resets.
type Step string

const (
	StepChooseScope    Step = "choose_scope"
	StepEnterGroupName Step = "enter_group_name"
	StepSelectDate     Step = "select_date"
	StepSelectCategory Step = "select_category"
	StepEnterAmount    Step = "enter_amount"

	StepSelectCurrency Step = "select_currency"

	StepChooseAction   Step = "choose_action"
	StepCreateName     Step = "create_name"
	StepCreateSize     Step = "create_size"
	StepDeleteName     Step = "delete_name"

	StepCalcBase   Step = "calc_base"
	StepCalcTarget Step = "calc_target"
	StepCalcAmount Step = "calc_amount"

	StepChatMessage Step = "chat_message"
)

// Turn is one exchange in an advisory conversation.
type Turn struct {
	Role    string
	Content string
}

// Data is the context captured so far in a conversation. Fields are
// filled in as steps complete and read by later steps.
type Data struct {
	Scope     core.Scope
	GroupName string
	Date      time.Time
	Category  string

	// Report currency for the history flow.
	Currency string

	// Currency calculator selections.
	CalcBase   string
	CalcTarget string

	// Group management action.
	Action string

	// Message id of the calendar keyboard, edited in place on redraw.
	CalendarMessageID int

	// Advisory conversation so far, system prompt first.
	Turns []Turn
}

// Session is one user's live progression through a flow.
type Session struct {
	UserID       core.UserID
	Flow         Flow
	Step         Step
	Data         Data
	CreatedAt    time.Time
	LastActivity time.Time
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}
