package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerbot/internal/calendar"
	"ledgerbot/internal/core"
	"ledgerbot/internal/events"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

func (e *Engine) startAdd(ctx context.Context, id core.UserID) {
	e.sessions.Start(id, session.FlowAdd, session.StepChooseScope)
	e.send(ctx, id, "Is this your own expense or a group's?", scopeKeyboard())
}

// stepChooseScope serves both the add and history flows; they branch
// the same way on Individual versus Group.
func (e *Engine) stepChooseScope(ctx context.Context, sess *session.Session, text string) {
	scope, err := core.ParseScope(text)
	if err != nil {
		e.send(ctx, sess.UserID, "Please choose Individual or Group.", scopeKeyboard())
		return
	}
	sess.Data.Scope = scope

	if scope == core.ScopeIndividual {
		switch sess.Flow {
		case session.FlowAdd:
			e.askDate(ctx, sess)
		case session.FlowHistory:
			e.sendUserReport(ctx, sess)
		}
		return
	}

	names, err := e.groups.Names(ctx)
	if err != nil {
		e.failFlow(ctx, sess, err)
		return
	}
	if len(names) == 0 {
		e.sessions.End(sess.UserID)
		e.send(ctx, sess.UserID, "There are no groups yet. Create one with /group first.", &transport.Markup{RemoveReply: true})
		return
	}
	sess.Step = session.StepEnterGroupName
	e.send(ctx, sess.UserID, "Which group?", oneButtonPerRow(names))
}

func (e *Engine) stepEnterGroupName(ctx context.Context, sess *session.Session, text string) {
	group, err := e.groups.Get(ctx, text)
	if errors.Is(err, ledger.ErrGroupNotFound) {
		e.sessions.End(sess.UserID)
		e.send(ctx, sess.UserID, fmt.Sprintf("There is no group named %q. Check the name and start over.", text), &transport.Markup{RemoveReply: true})
		return
	}
	if err != nil {
		e.failFlow(ctx, sess, err)
		return
	}
	sess.Data.GroupName = group.Name

	switch sess.Flow {
	case session.FlowAdd:
		e.askDate(ctx, sess)
	case session.FlowHistory:
		e.sendGroupReport(ctx, sess, group)
	}
}

func (e *Engine) askDate(ctx context.Context, sess *session.Session) {
	sess.Step = session.StepSelectDate
	msgID := e.send(ctx, sess.UserID, "When was it? Pick a date:", calendar.Markup(e.now()))
	sess.Data.CalendarMessageID = msgID
}

// stepTypedDate accepts a typed date while the calendar keyboard is up.
func (e *Engine) stepTypedDate(ctx context.Context, sess *session.Session, text string) {
	date, err := core.ParseDate(text)
	if err != nil {
		e.send(ctx, sess.UserID, "Pick a date from the calendar, or type one like 05-Jan-2025.", nil)
		return
	}
	e.acceptDate(ctx, sess, date)
}

func (e *Engine) handleCallback(ctx context.Context, id core.UserID, cb transport.Callback) {
	sess, _ := e.sessions.Get(id)
	if sess == nil || sess.Step != session.StepSelectDate {
		return
	}
	res, ok := calendar.Process(cb.Data)
	if !ok {
		return
	}
	switch {
	case res.Redraw != nil:
		if err := e.sender.Edit(ctx, id, cb.MessageID, "When was it? Pick a date:", res.Redraw); err != nil {
			e.log.WarnContext(ctx, "Calendar redraw failed",
				log.FieldUserID, id, log.FieldError, err)
		}
		sess.Data.CalendarMessageID = cb.MessageID
	case res.Picked:
		e.acceptDate(ctx, sess, res.Date)
	}
}

func (e *Engine) acceptDate(ctx context.Context, sess *session.Session, date time.Time) {
	if err := core.ValidateDate(date, e.now()); err != nil {
		e.send(ctx, sess.UserID, "That date is in the future. Pick one that already happened.", nil)
		return
	}
	sess.Data.Date = date

	if sess.Data.CalendarMessageID != 0 {
		// Freeze the calendar so a second tap cannot change the date.
		_ = e.sender.Edit(ctx, sess.UserID, sess.Data.CalendarMessageID,
			"Date: "+date.Format(core.DateFormat), nil)
	}

	sess.Step = session.StepSelectCategory
	e.send(ctx, sess.UserID, "What kind of expense?", categoryKeyboard(e.categories))
}

func (e *Engine) stepSelectCategory(ctx context.Context, sess *session.Session, text string) {
	category, err := core.ValidateCategory(text, e.categories)
	if err != nil {
		e.send(ctx, sess.UserID, "I do not know that category. Pick one from the keyboard.", categoryKeyboard(e.categories))
		return
	}
	sess.Data.Category = category
	sess.Step = session.StepEnterAmount
	e.send(ctx, sess.UserID, "How much was it, in "+core.BaseCurrency+"?", &transport.Markup{RemoveReply: true})
}

func (e *Engine) stepEnterAmount(ctx context.Context, sess *session.Session, text string) {
	amount, err := core.ParseAmount(text)
	switch {
	case errors.Is(err, core.ErrNonPositiveAmount):
		e.send(ctx, sess.UserID, "The amount must be greater than zero. Try again.", nil)
		return
	case err != nil:
		e.send(ctx, sess.UserID, "That does not look like a number. Try something like 12.50.", nil)
		return
	}

	rec := core.Record{Date: sess.Data.Date, Category: sess.Data.Category, Amount: amount}
	id := sess.UserID
	e.sessions.End(id)

	if sess.Data.Scope == core.ScopeGroup {
		share, err := e.groups.AddExpense(ctx, sess.Data.GroupName, rec)
		if err != nil {
			e.send(ctx, id, "I could not save that expense. Nothing was recorded, please try again.", nil)
			e.log.ErrorContext(ctx, "Group write failed",
				log.FieldUserID, id, log.FieldGroup, sess.Data.GroupName, log.FieldError, err)
			return
		}
		e.publishRecorded(ctx, id, core.ScopeGroup, sess.Data.GroupName, rec)
		e.send(ctx, id, fmt.Sprintf("Recorded %s %s for %s in %q on %s. Each member now owes %s %s.",
			core.FormatAmount(amount), core.BaseCurrency, rec.Category, sess.Data.GroupName,
			rec.Date.Format(core.DateFormat), core.FormatAmount(share), core.BaseCurrency), nil)
		return
	}

	if err := e.users.AppendExpense(ctx, id, rec); err != nil {
		e.send(ctx, id, "I could not save that expense. Nothing was recorded, please try again.", nil)
		e.log.ErrorContext(ctx, "User write failed",
			log.FieldUserID, id, log.FieldError, err)
		return
	}
	e.publishRecorded(ctx, id, core.ScopeIndividual, "", rec)

	confirmation := fmt.Sprintf("Recorded %s %s for %s on %s.",
		core.FormatAmount(amount), core.BaseCurrency, rec.Category, rec.Date.Format(core.DateFormat))
	if remaining, ok := e.remainingBudget(ctx, id); ok {
		confirmation += " Remaining budget: " + remaining + " " + core.BaseCurrency + "."
	}
	e.send(ctx, id, confirmation, nil)
}

func (e *Engine) remainingBudget(ctx context.Context, id core.UserID) (string, bool) {
	budgets, err := e.users.Budgets(ctx, id)
	if err != nil || !budgets.HasOverall {
		return "", false
	}
	history, err := e.users.History(ctx, id)
	if err != nil {
		return "", false
	}
	spent := decimalSum(history)
	return core.FormatAmount(budgets.Overall.Sub(spent)), true
}

// publishRecorded is best effort: the user's write already succeeded
// and a broker outage must not fail their conversation.
func (e *Engine) publishRecorded(ctx context.Context, id core.UserID, scope core.Scope, groupName string, rec core.Record) {
	if e.publisher == nil {
		return
	}
	msg := events.NewExpenseRecorded(id, scope, groupName, rec)
	if err := e.publisher.PublishExpenseRecorded(ctx, msg); err != nil {
		e.log.WarnContext(ctx, "Publishing expense event failed",
			log.FieldUserID, id, log.FieldError, err)
	}
}

func (e *Engine) failFlow(ctx context.Context, sess *session.Session, err error) {
	e.log.ErrorContext(ctx, "Flow failed",
		log.FieldUserID, sess.UserID,
		log.FieldFlow, string(sess.Flow),
		log.FieldError, err)
	e.sessions.End(sess.UserID)
	e.send(ctx, sess.UserID, "Something went wrong on my side. Please try again.", &transport.Markup{RemoveReply: true})
}
