// Package engine is the conversation state machine: it routes inbound
// updates to the pending step of each user's session, or to a command
// handler when no conversation is live.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"ledgerbot/internal/chat"
	"ledgerbot/internal/core"
	"ledgerbot/internal/currency"
	"ledgerbot/internal/events"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/report"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

type Options struct {
	Users      ledger.UserStore
	Groups     ledger.GroupStore
	Rates      currency.Rates
	Advisor    chat.Advisor
	Sender     transport.Sender
	Publisher  events.Publisher // optional, nil disables event publishing
	Sessions   *session.Store
	Categories []string
	Logger     *log.Logger
}

type Engine struct {
	users      ledger.UserStore
	groups     ledger.GroupStore
	rates      currency.Rates
	advisor    chat.Advisor
	sender     transport.Sender
	publisher  events.Publisher
	sessions   *session.Store
	reports    *report.Builder
	categories []string
	log        *log.Logger
	now        func() time.Time

	// One in-flight step per user; concurrent updates for the same
	// user queue here instead of racing on the session.
	mu      sync.Mutex
	userMus map[core.UserID]*sync.Mutex
}

func New(opts Options) *Engine {
	return &Engine{
		users:      opts.Users,
		groups:     opts.Groups,
		rates:      opts.Rates,
		advisor:    opts.Advisor,
		sender:     opts.Sender,
		publisher:  opts.Publisher,
		sessions:   opts.Sessions,
		reports:    report.NewBuilder(opts.Rates, opts.Logger),
		categories: opts.Categories,
		log:        opts.Logger.WithComponent(log.ComponentEngine),
		now:        time.Now,
		userMus:    make(map[core.UserID]*sync.Mutex),
	}
}

// HandleUpdate processes one inbound update to completion: exactly one
// step transition, or a command, or a help hint.
func (e *Engine) HandleUpdate(ctx context.Context, upd transport.Update) {
	mu := e.userMu(upd.UserID)
	mu.Lock()
	defer mu.Unlock()

	if upd.Callback != nil {
		e.handleCallback(ctx, upd.UserID, *upd.Callback)
		return
	}

	text := strings.TrimSpace(upd.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		e.handleCommand(ctx, upd.UserID, text)
		return
	}

	sess, expired := e.sessions.Get(upd.UserID)
	switch {
	case sess != nil:
		e.handleStep(ctx, sess, text)
	case expired:
		e.send(ctx, upd.UserID, "Your previous conversation timed out. Start over with "+helpHint, nil)
	default:
		e.send(ctx, upd.UserID, "I did not catch that. "+helpHint, nil)
	}
}

// NotifyTimeout tells a user their conversation was reclaimed by the
// background sweep. Wired as the sweeper callback.
func (e *Engine) NotifyTimeout(ctx context.Context, id core.UserID) {
	e.log.InfoContext(ctx, "Session timed out",
		log.FieldUserID, id, log.FieldOperation, log.OpSweep)
	e.send(ctx, id, "Your conversation timed out after 2 minutes of inactivity. Start over with "+helpHint, nil)
}

func (e *Engine) handleCommand(ctx context.Context, id core.UserID, text string) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	sess, _ := e.sessions.Get(id)

	// Ending an advisory chat is a normal exit, not a cancellation.
	if cmd == "/end" {
		if sess != nil && sess.Flow == session.FlowAdvisory {
			e.sessions.End(id)
			e.send(ctx, id, "Thanks for chatting. Come back any time.", nil)
			return
		}
		cmd = "/cancel"
	}

	if cmd == "/cancel" {
		if sess != nil {
			e.sessions.End(id)
			e.send(ctx, id, "Cancelled your pending "+flowLabel(sess.Flow)+" conversation.", &transport.Markup{RemoveReply: true})
		} else {
			e.send(ctx, id, "Nothing to cancel.", nil)
		}
		return
	}

	// Any other command abandons a pending conversation, with feedback
	// so the step change is never silent.
	if sess != nil {
		e.sessions.End(id)
		e.send(ctx, id, "Ended your pending "+flowLabel(sess.Flow)+" conversation.", &transport.Markup{RemoveReply: true})
	}

	e.log.InfoContext(ctx, "Handling command",
		log.FieldUserID, id, log.FieldCommand, cmd)

	switch cmd {
	case "/start", "/help":
		e.send(ctx, id, helpText, nil)
	case "/add":
		e.startAdd(ctx, id)
	case "/history":
		e.startHistory(ctx, id)
	case "/group":
		e.startGroup(ctx, id)
	case "/calc":
		e.startCalc(ctx, id)
	case "/chat":
		e.startAdvisory(ctx, id)
	case "/currencies":
		e.listCurrencies(ctx, id)
	case "/convert":
		e.oneShotConvert(ctx, id, args)
	default:
		e.send(ctx, id, "Unknown command. "+helpHint, nil)
	}
}

func (e *Engine) handleStep(ctx context.Context, sess *session.Session, text string) {
	e.log.DebugContext(ctx, "Handling step",
		log.FieldUserID, sess.UserID,
		log.FieldFlow, string(sess.Flow),
		log.FieldStep, string(sess.Step))

	switch sess.Step {
	case session.StepChooseScope:
		e.stepChooseScope(ctx, sess, text)
	case session.StepEnterGroupName:
		e.stepEnterGroupName(ctx, sess, text)
	case session.StepSelectDate:
		e.stepTypedDate(ctx, sess, text)
	case session.StepSelectCategory:
		e.stepSelectCategory(ctx, sess, text)
	case session.StepEnterAmount:
		e.stepEnterAmount(ctx, sess, text)
	case session.StepSelectCurrency:
		e.stepSelectCurrency(ctx, sess, text)
	case session.StepChooseAction:
		e.stepChooseAction(ctx, sess, text)
	case session.StepCreateName:
		e.stepCreateName(ctx, sess, text)
	case session.StepCreateSize:
		e.stepCreateSize(ctx, sess, text)
	case session.StepDeleteName:
		e.stepDeleteName(ctx, sess, text)
	case session.StepCalcBase, session.StepCalcTarget:
		e.stepCalcCurrency(ctx, sess, text)
	case session.StepCalcAmount:
		e.stepCalcAmount(ctx, sess, text)
	case session.StepChatMessage:
		e.stepChatMessage(ctx, sess, text)
	default:
		e.log.WarnContext(ctx, "Unknown session step",
			log.FieldUserID, sess.UserID, log.FieldStep, string(sess.Step))
		e.sessions.End(sess.UserID)
		e.send(ctx, sess.UserID, "Something went wrong, let's start over. "+helpHint, nil)
	}
}

func (e *Engine) userMu(id core.UserID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	mu, ok := e.userMus[id]
	if !ok {
		mu = &sync.Mutex{}
		e.userMus[id] = mu
	}
	return mu
}

func (e *Engine) send(ctx context.Context, id core.UserID, text string, markup *transport.Markup) int {
	msgID, err := e.sender.Send(ctx, id, text, markup)
	if err != nil {
		e.log.ErrorContext(ctx, "Sending message failed",
			log.FieldUserID, id, log.FieldError, err)
	}
	return msgID
}
