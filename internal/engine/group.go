package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

func (e *Engine) startGroup(ctx context.Context, id core.UserID) {
	e.sessions.Start(id, session.FlowGroup, session.StepChooseAction)
	e.send(ctx, id, "What would you like to do?", actionKeyboard())
}

func (e *Engine) stepChooseAction(ctx context.Context, sess *session.Session, text string) {
	switch strings.TrimSpace(text) {
	case actionCreate:
		sess.Data.Action = actionCreate
		sess.Step = session.StepCreateName
		e.send(ctx, sess.UserID, "What should the group be called?", &transport.Markup{RemoveReply: true})
	case actionView:
		e.listGroups(ctx, sess)
	case actionDelete:
		names, err := e.groups.Names(ctx)
		if err != nil {
			e.failFlow(ctx, sess, err)
			return
		}
		if len(names) == 0 {
			e.sessions.End(sess.UserID)
			e.send(ctx, sess.UserID, "There are no groups to delete.", &transport.Markup{RemoveReply: true})
			return
		}
		sess.Data.Action = actionDelete
		sess.Step = session.StepDeleteName
		e.send(ctx, sess.UserID, "Which group should I delete? Its expenses go with it.", oneButtonPerRow(names))
	default:
		e.send(ctx, sess.UserID, "Please pick one of the options.", actionKeyboard())
	}
}

func (e *Engine) stepCreateName(ctx context.Context, sess *session.Session, text string) {
	name := strings.TrimSpace(text)
	if name == "" || strings.HasPrefix(name, "/") {
		e.send(ctx, sess.UserID, "That is not a usable name. Try another.", nil)
		return
	}
	sess.Data.GroupName = name
	sess.Step = session.StepCreateSize
	e.send(ctx, sess.UserID, "How many members does it have?", nil)
}

func (e *Engine) stepCreateSize(ctx context.Context, sess *session.Session, text string) {
	size, err := core.ParseGroupSize(text)
	if err != nil {
		e.send(ctx, sess.UserID, "I need a whole number of at least 1. Try again.", nil)
		return
	}

	id := sess.UserID
	e.sessions.End(id)

	err = e.groups.Create(ctx, sess.Data.GroupName, size)
	switch {
	case errors.Is(err, ledger.ErrDuplicateGroup):
		e.send(ctx, id, fmt.Sprintf("A group named %q already exists. Nothing was created.", sess.Data.GroupName), nil)
	case err != nil:
		e.send(ctx, id, "I could not create the group. Please try again.", nil)
		e.log.ErrorContext(ctx, "Group create failed",
			log.FieldUserID, id, log.FieldGroup, sess.Data.GroupName, log.FieldError, err)
	default:
		e.send(ctx, id, fmt.Sprintf("Created group %q with %d members. Record its expenses with /add.", sess.Data.GroupName, size), nil)
	}
}

func (e *Engine) stepDeleteName(ctx context.Context, sess *session.Session, text string) {
	name := strings.TrimSpace(text)
	id := sess.UserID
	e.sessions.End(id)

	err := e.groups.Delete(ctx, name)
	switch {
	case errors.Is(err, ledger.ErrGroupNotFound):
		e.send(ctx, id, fmt.Sprintf("There is no group named %q.", name), &transport.Markup{RemoveReply: true})
	case err != nil:
		e.send(ctx, id, "I could not delete the group. Please try again.", &transport.Markup{RemoveReply: true})
		e.log.ErrorContext(ctx, "Group delete failed",
			log.FieldUserID, id, log.FieldGroup, name, log.FieldError, err)
	default:
		e.send(ctx, id, fmt.Sprintf("Deleted group %q and its expenses.", name), &transport.Markup{RemoveReply: true})
	}
}

func (e *Engine) listGroups(ctx context.Context, sess *session.Session) {
	id := sess.UserID
	e.sessions.End(id)

	names, err := e.groups.Names(ctx)
	if err != nil {
		e.send(ctx, id, "I could not list the groups. Please try again.", &transport.Markup{RemoveReply: true})
		e.log.ErrorContext(ctx, "Group list failed", log.FieldUserID, id, log.FieldError, err)
		return
	}
	if len(names) == 0 {
		e.send(ctx, id, "There are no groups yet.", &transport.Markup{RemoveReply: true})
		return
	}

	var b strings.Builder
	b.WriteString("Groups:\n")
	for _, name := range names {
		group, err := e.groups.Get(ctx, name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d members, %s %s spent\n",
			group.Name, group.Size, core.FormatAmount(group.TotalSpent), core.BaseCurrency)
	}
	e.send(ctx, id, strings.TrimRight(b.String(), "\n"), &transport.Markup{RemoveReply: true})
}
