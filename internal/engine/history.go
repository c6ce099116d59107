package engine

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

func (e *Engine) startHistory(ctx context.Context, id core.UserID) {
	sess, _ := e.sessions.Start(id, session.FlowHistory, session.StepSelectCurrency)

	prompt := "Which currency should the report use?"
	if preferred, ok, err := e.users.BaseCurrency(ctx, id); err == nil && ok {
		sess.Data.Currency = preferred
		prompt += " Last time you used " + preferred + "."
	}
	e.send(ctx, id, prompt, currencyKeyboard())
}

func (e *Engine) stepSelectCurrency(ctx context.Context, sess *session.Session, text string) {
	code := strings.ToUpper(strings.TrimSpace(text))
	if !e.acceptableCurrency(ctx, code) {
		e.send(ctx, sess.UserID, "I do not recognize that currency code. Try one like USD or EUR.", currencyKeyboard())
		return
	}
	sess.Data.Currency = code

	// Remember the choice for next time; losing it only costs a hint.
	if err := e.users.SetBaseCurrency(ctx, sess.UserID, code); err != nil {
		e.log.WarnContext(ctx, "Saving currency preference failed",
			log.FieldUserID, sess.UserID, log.FieldError, err)
	}

	sess.Step = session.StepChooseScope
	e.send(ctx, sess.UserID, "Your own history, or a group's?", scopeKeyboard())
}

// acceptableCurrency validates against the live code list when it is
// available. When the currency service is down, any three-letter code
// passes: the report degrades per row instead of blocking the flow.
func (e *Engine) acceptableCurrency(ctx context.Context, code string) bool {
	if len(code) != 3 {
		return false
	}
	codes, ok := e.rates.Codes(ctx)
	if !ok {
		return true
	}
	for _, known := range codes {
		if known == code {
			return true
		}
	}
	return false
}

func (e *Engine) sendUserReport(ctx context.Context, sess *session.Session) {
	id := sess.UserID
	e.sessions.End(id)

	history, err := e.users.History(ctx, id)
	if err != nil {
		e.send(ctx, id, "I could not read your history. Please try again.", &transport.Markup{RemoveReply: true})
		e.log.ErrorContext(ctx, "History read failed",
			log.FieldUserID, id, log.FieldError, err)
		return
	}
	if len(history) == 0 {
		e.send(ctx, id, "You have no recorded expenses yet. Add one with /add.", &transport.Markup{RemoveReply: true})
		return
	}
	table := e.reports.User(ctx, history, sess.Data.Currency)
	e.send(ctx, id, table, &transport.Markup{Monospace: true, RemoveReply: true})
}

func (e *Engine) sendGroupReport(ctx context.Context, sess *session.Session, group core.Group) {
	id := sess.UserID
	e.sessions.End(id)

	if len(group.Expenses) == 0 {
		e.send(ctx, id, "Group "+group.Name+" has no expenses yet.", &transport.Markup{RemoveReply: true})
		return
	}
	table := e.reports.Group(ctx, group, sess.Data.Currency)
	e.send(ctx, id, table, &transport.Markup{Monospace: true, RemoveReply: true})
}

func decimalSum(records []core.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
