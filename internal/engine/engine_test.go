package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/chat"
	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger/jsonfile"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
	"ledgerbot/internal/transport/memory"
)

var testCategories = []string{"Food", "Groceries", "Utilities", "Transport", "Shopping", "Miscellaneous"}

type fakeRates struct {
	table map[string]decimal.Decimal
	down  bool
}

func (f fakeRates) Codes(ctx context.Context) ([]string, bool) {
	if f.down {
		return nil, false
	}
	return []string{"AED", "EUR", "GBP", "INR", "USD"}, true
}

func (f fakeRates) Rate(ctx context.Context, base, target string) (decimal.Decimal, bool) {
	if base == target {
		return decimal.NewFromInt(1), true
	}
	if f.down {
		return decimal.Zero, false
	}
	rate, ok := f.table[base+"/"+target]
	return rate, ok
}

type testEnv struct {
	engine    *Engine
	transport *memory.Transport
	store     *jsonfile.Store
	sessions  *session.Store
}

func newTestEnv(t *testing.T, rates fakeRates) *testEnv {
	t.Helper()

	store, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("jsonfile.New: %v", err)
	}
	logger := log.New(log.DefaultConfig())
	sessions := session.NewStore(2*time.Minute, logger)
	sender := memory.New()

	eng := New(Options{
		Users:      store,
		Groups:     store,
		Rates:      rates,
		Advisor:    chat.NewLocal(),
		Sender:     sender,
		Sessions:   sessions,
		Categories: testCategories,
		Logger:     logger,
	})
	return &testEnv{engine: eng, transport: sender, store: store, sessions: sessions}
}

func defaultRates() fakeRates {
	return fakeRates{table: map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.5"),
		"EUR/USD": decimal.NewFromInt(2),
	}}
}

func (env *testEnv) say(t *testing.T, id core.UserID, text string) string {
	t.Helper()
	env.engine.HandleUpdate(context.Background(), transport.Update{UserID: id, Text: text})
	return env.transport.Last().Text
}

func (env *testEnv) press(t *testing.T, id core.UserID, messageID int, data string) string {
	t.Helper()
	env.engine.HandleUpdate(context.Background(), transport.Update{
		UserID:   id,
		Callback: &transport.Callback{ID: "cb", MessageID: messageID, Data: data},
	})
	return env.transport.Last().Text
}

func TestAddIndividualFlow(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/add")
	env.say(t, user, "Individual")

	calendarMsg := env.transport.Last()
	if len(calendarMsg.Markup.Inline) == 0 {
		t.Fatalf("expected calendar keyboard, got %+v", calendarMsg)
	}

	env.press(t, user, calendarMsg.MessageID, "cal:day:2025-01-05")
	env.say(t, user, "Food")
	confirm := env.say(t, user, "12.5")

	if !strings.Contains(confirm, "Recorded 12.5 USD for Food") {
		t.Errorf("confirmation = %q", confirm)
	}
	if !strings.Contains(confirm, "05-Jan-2025") {
		t.Errorf("confirmation missing date: %q", confirm)
	}

	history, err := env.store.History(context.Background(), user)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Category != "Food" {
		t.Fatalf("history = %+v", history)
	}
	if env.sessions.Len() != 0 {
		t.Error("session should end after the write")
	}
}

func TestAddRepromptsOnBadAmount(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/add")
	env.say(t, user, "Individual")
	cal := env.transport.Last()
	env.press(t, user, cal.MessageID, "cal:day:2025-01-05")
	env.say(t, user, "Food")

	if got := env.say(t, user, "-4"); !strings.Contains(got, "greater than zero") {
		t.Errorf("negative amount reply = %q", got)
	}
	if got := env.say(t, user, "abc"); !strings.Contains(got, "does not look like a number") {
		t.Errorf("non-numeric reply = %q", got)
	}

	if got := env.say(t, user, "10"); !strings.Contains(got, "Recorded 10 USD") {
		t.Errorf("confirmation = %q", got)
	}
}

func TestFutureDateKeepsStep(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/add")
	env.say(t, user, "Individual")
	cal := env.transport.Last()

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	if got := env.press(t, user, cal.MessageID, "cal:day:"+tomorrow); !strings.Contains(got, "future") {
		t.Errorf("future date reply = %q", got)
	}

	// The step survives: a valid pick still advances.
	if got := env.press(t, user, cal.MessageID, "cal:day:2025-01-05"); !strings.Contains(got, "What kind of expense?") {
		t.Errorf("after valid pick = %q", got)
	}
}

func TestUnknownCategoryReprompts(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/add")
	env.say(t, user, "Individual")
	cal := env.transport.Last()
	env.press(t, user, cal.MessageID, "cal:day:2025-01-05")

	if got := env.say(t, user, "Yachts"); !strings.Contains(got, "do not know that category") {
		t.Errorf("unknown category reply = %q", got)
	}
	if got := env.say(t, user, "Food"); !strings.Contains(got, "How much") {
		t.Errorf("valid category reply = %q", got)
	}
}

func TestAddGroupFlow(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7
	ctx := context.Background()

	if err := env.store.Create(ctx, "trip", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.say(t, user, "/add")
	env.say(t, user, "Group")
	env.say(t, user, "trip")
	cal := env.transport.Last()
	env.press(t, user, cal.MessageID, "cal:day:2025-01-05")
	env.say(t, user, "Food")
	confirm := env.say(t, user, "50")

	// 50 / 3 = 16.67 half-up.
	if !strings.Contains(confirm, "16.67") {
		t.Errorf("confirmation missing per-member share: %q", confirm)
	}

	group, err := env.store.Get(ctx, "trip")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !group.TotalSpent.Equal(decimal.RequireFromString("50")) {
		t.Errorf("total = %s", group.TotalSpent)
	}
}

func TestAddGroupUnknownNameEndsFlow(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	if err := env.store.Create(context.Background(), "trip", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.say(t, user, "/add")
	env.say(t, user, "Group")

	if got := env.say(t, user, "nope"); !strings.Contains(got, "no group named") {
		t.Errorf("unknown group reply = %q", got)
	}
	if env.sessions.Len() != 0 {
		t.Error("flow should end on unknown group")
	}
}

func TestHistoryFlowConverts(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7
	ctx := context.Background()

	date, _ := time.Parse(core.DateFormat, "05-Jan-2025")
	rec := core.Record{Date: date, Category: "Food", Amount: decimal.RequireFromString("10")}
	if err := env.store.AppendExpense(ctx, user, rec); err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}

	env.say(t, user, "/history")
	env.say(t, user, "EUR")
	report := env.say(t, user, "Individual")

	if !strings.Contains(report, "5.00 EUR") {
		t.Errorf("report = %q", report)
	}
	if last := env.transport.Last(); last.Markup == nil || !last.Markup.Monospace {
		t.Error("report should be monospace")
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/history")
	env.say(t, user, "USD")
	if got := env.say(t, user, "Individual"); !strings.Contains(got, "no recorded expenses") {
		t.Errorf("empty history reply = %q", got)
	}
}

func TestHistoryRejectsUnknownCurrency(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/history")
	if got := env.say(t, user, "XXX"); !strings.Contains(got, "do not recognize") {
		t.Errorf("unknown currency reply = %q", got)
	}
	// Still on the same step.
	if got := env.say(t, user, "EUR"); !strings.Contains(got, "history") {
		t.Errorf("after valid currency = %q", got)
	}
}

func TestCommandCancelsPendingConversation(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/add")
	env.engine.HandleUpdate(context.Background(), transport.Update{UserID: user, Text: "/history"})

	msgs := env.transport.Messages()
	feedback := msgs[len(msgs)-2]
	if !strings.Contains(feedback.Text, "Ended your pending expense conversation") {
		t.Errorf("cancellation feedback = %q", feedback.Text)
	}
	if !strings.Contains(env.transport.Last().Text, "currency") {
		t.Errorf("new flow prompt = %q", env.transport.Last().Text)
	}
}

func TestCancelCommand(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	if got := env.say(t, user, "/cancel"); !strings.Contains(got, "Nothing to cancel") {
		t.Errorf("idle cancel reply = %q", got)
	}

	env.say(t, user, "/add")
	if got := env.say(t, user, "/cancel"); !strings.Contains(got, "Cancelled") {
		t.Errorf("cancel reply = %q", got)
	}
	if env.sessions.Len() != 0 {
		t.Error("session should be gone after /cancel")
	}
}

func TestGroupManagement(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/group")
	env.say(t, user, "Create Group")
	env.say(t, user, "flat")
	if got := env.say(t, user, "4"); !strings.Contains(got, `Created group "flat" with 4 members`) {
		t.Errorf("create reply = %q", got)
	}

	env.say(t, user, "/group")
	if got := env.say(t, user, "View All Groups"); !strings.Contains(got, "flat: 4 members") {
		t.Errorf("list reply = %q", got)
	}

	env.say(t, user, "/group")
	env.say(t, user, "Delete Group")
	if got := env.say(t, user, "flat"); !strings.Contains(got, `Deleted group "flat"`) {
		t.Errorf("delete reply = %q", got)
	}
}

func TestGroupCreateDuplicate(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	if err := env.store.Create(context.Background(), "flat", 2); err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.say(t, user, "/group")
	env.say(t, user, "Create Group")
	env.say(t, user, "flat")
	if got := env.say(t, user, "4"); !strings.Contains(got, "already exists") {
		t.Errorf("duplicate reply = %q", got)
	}
}

func TestCalcFlow(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	env.say(t, user, "/calc")
	env.say(t, user, "EUR")
	env.say(t, user, "USD")
	if got := env.say(t, user, "10"); !strings.Contains(got, "10 EUR = 20 USD") {
		t.Errorf("calc reply = %q", got)
	}
}

func TestOneShotConvert(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7

	if got := env.say(t, user, "/convert 10 EUR to USD"); !strings.Contains(got, "10 EUR = 20 USD") {
		t.Errorf("convert reply = %q", got)
	}
	if got := env.say(t, user, "/convert nonsense"); !strings.Contains(got, "Usage") {
		t.Errorf("malformed convert reply = %q", got)
	}
}

func TestConvertServiceDown(t *testing.T) {
	env := newTestEnv(t, fakeRates{down: true})
	const user core.UserID = 7

	if got := env.say(t, user, "/convert 10 EUR to USD"); !strings.Contains(got, "could not fetch") {
		t.Errorf("service-down reply = %q", got)
	}
}

func TestAdvisoryChat(t *testing.T) {
	env := newTestEnv(t, defaultRates())
	const user core.UserID = 7
	ctx := context.Background()

	date, _ := time.Parse(core.DateFormat, "05-Jan-2025")
	rec := core.Record{Date: date, Category: "Food", Amount: decimal.RequireFromString("30")}
	if err := env.store.AppendExpense(ctx, user, rec); err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}

	env.say(t, user, "/chat")
	if got := env.say(t, user, "how much on food?"); !strings.Contains(got, "30.00 USD") {
		t.Errorf("chat reply = %q", got)
	}
	// The chat stays open across turns.
	if env.sessions.Len() != 1 {
		t.Error("chat session should stay alive")
	}
	if got := env.say(t, user, "/end"); !strings.Contains(got, "Thanks for chatting") {
		t.Errorf("end reply = %q", got)
	}
	if env.sessions.Len() != 0 {
		t.Error("chat session should end on /end")
	}
}

func TestUnknownTextGetsHelpHint(t *testing.T) {
	env := newTestEnv(t, defaultRates())

	if got := env.say(t, 7, "hello"); !strings.Contains(got, "/help") {
		t.Errorf("idle text reply = %q", got)
	}
}
