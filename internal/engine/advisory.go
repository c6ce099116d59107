package engine

import (
	"context"

	"ledgerbot/internal/chat"
	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
)

func (e *Engine) startAdvisory(ctx context.Context, id core.UserID) {
	e.sessions.Start(id, session.FlowAdvisory, session.StepChatMessage)
	e.send(ctx, id, "Ask me anything about your spending. Send /end when you are done.", nil)
}

// stepChatMessage keeps the session open: an advisory chat has no
// terminal step, only /end or the inactivity timeout.
func (e *Engine) stepChatMessage(ctx context.Context, sess *session.Session, text string) {
	id := sess.UserID

	history, err := e.users.History(ctx, id)
	if err != nil {
		e.log.ErrorContext(ctx, "History read failed for chat",
			log.FieldUserID, id, log.FieldError, err)
		e.send(ctx, id, "I cannot reach your ledger right now. Try again in a moment.", nil)
		return
	}
	budgets, err := e.users.Budgets(ctx, id)
	if err != nil {
		budgets = core.Budgets{}
	}

	sess.Data.Turns = append(sess.Data.Turns, session.Turn{Role: "user", Content: text})

	status := chat.BuildStatus(history, budgets)
	reply, ok := e.advisor.Reply(ctx, status, sess.Data.Turns)
	if !ok {
		e.send(ctx, id, "I do not have an answer for that. Try asking about a category or your budget.", nil)
		return
	}
	sess.Data.Turns = append(sess.Data.Turns, session.Turn{Role: "assistant", Content: reply})
	e.send(ctx, id, reply, nil)
}
