package engine

import (
	"context"
	"fmt"
	"strings"

	"ledgerbot/internal/core"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

func (e *Engine) startCalc(ctx context.Context, id core.UserID) {
	e.sessions.Start(id, session.FlowCalc, session.StepCalcBase)
	e.send(ctx, id, "Convert from which currency?", currencyKeyboard())
}

func (e *Engine) stepCalcCurrency(ctx context.Context, sess *session.Session, text string) {
	code := strings.ToUpper(strings.TrimSpace(text))
	if !e.acceptableCurrency(ctx, code) {
		e.send(ctx, sess.UserID, "I do not recognize that currency code. Try one like USD or EUR.", currencyKeyboard())
		return
	}

	if sess.Step == session.StepCalcBase {
		sess.Data.CalcBase = code
		sess.Step = session.StepCalcTarget
		e.send(ctx, sess.UserID, "Convert to which currency?", currencyKeyboard())
		return
	}

	sess.Data.CalcTarget = code
	sess.Step = session.StepCalcAmount
	e.send(ctx, sess.UserID, fmt.Sprintf("How much %s?", sess.Data.CalcBase), &transport.Markup{RemoveReply: true})
}

func (e *Engine) stepCalcAmount(ctx context.Context, sess *session.Session, text string) {
	amount, err := core.ParseAmount(text)
	if err != nil {
		e.send(ctx, sess.UserID, "That does not look like a positive number. Try again.", nil)
		return
	}

	id := sess.UserID
	base, target := sess.Data.CalcBase, sess.Data.CalcTarget
	e.sessions.End(id)

	rate, ok := e.rates.Rate(ctx, base, target)
	if !ok {
		e.send(ctx, id, "I could not fetch the conversion rate. Try again later.", nil)
		return
	}
	e.send(ctx, id, fmt.Sprintf("%s %s = %s %s",
		core.FormatAmount(amount), base,
		core.FormatAmount(core.Convert(amount, rate)), target), nil)
}

func (e *Engine) listCurrencies(ctx context.Context, id core.UserID) {
	codes, ok := e.rates.Codes(ctx)
	if !ok {
		e.send(ctx, id, "The currency service is unavailable right now. Try again later.", nil)
		return
	}
	e.send(ctx, id, "Supported currencies:\n"+strings.Join(codes, ", "), nil)
}

// oneShotConvert handles "/convert <amount> <from> to <to>" without a
// conversation.
func (e *Engine) oneShotConvert(ctx context.Context, id core.UserID, args []string) {
	const usage = "Usage: /convert 25 EUR to USD"

	if len(args) != 4 || !strings.EqualFold(args[2], "to") {
		e.send(ctx, id, usage, nil)
		return
	}
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		e.send(ctx, id, usage, nil)
		return
	}
	base := strings.ToUpper(args[1])
	target := strings.ToUpper(args[3])

	rate, ok := e.rates.Rate(ctx, base, target)
	if !ok {
		e.send(ctx, id, "I could not fetch the conversion rate. Try again later.", nil)
		return
	}
	e.send(ctx, id, fmt.Sprintf("%s %s = %s %s",
		core.FormatAmount(amount), base,
		core.FormatAmount(core.Convert(amount, rate)), target), nil)
}
