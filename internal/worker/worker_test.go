package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/events"
	"ledgerbot/internal/log"
)

type stubConsumer struct {
	queued []*events.ExpenseRecorded
}

func (s *stubConsumer) ConsumeExpenseRecorded(ctx context.Context, handler func(*events.ExpenseRecorded) error) error {
	for _, msg := range s.queued {
		if err := handler(msg); err != nil {
			return err
		}
	}
	return nil
}

type recordingAppender struct {
	appended []*events.ExpenseRecorded
	err      error
}

func (r *recordingAppender) AppendExpense(ctx context.Context, msg *events.ExpenseRecorded) error {
	if r.err != nil {
		return r.err
	}
	r.appended = append(r.appended, msg)
	return nil
}

func event(category string) *events.ExpenseRecorded {
	return &events.ExpenseRecorded{
		UserID:   7,
		Date:     "01-Jan-2025",
		Category: category,
		Amount:   decimal.RequireFromString("5"),
	}
}

func TestWorkerAppendsEachEvent(t *testing.T) {
	consumer := &stubConsumer{queued: []*events.ExpenseRecorded{event("Food"), event("Transport")}}
	appender := &recordingAppender{}

	w := New(consumer, appender, log.New(log.DefaultConfig()))
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(appender.appended) != 2 {
		t.Fatalf("appended %d events, want 2", len(appender.appended))
	}
	if appender.appended[1].Category != "Transport" {
		t.Errorf("second event = %+v", appender.appended[1])
	}
}

func TestWorkerPropagatesAppendFailure(t *testing.T) {
	consumer := &stubConsumer{queued: []*events.ExpenseRecorded{event("Food")}}
	appender := &recordingAppender{err: errors.New("sheet unavailable")}

	w := New(consumer, appender, log.New(log.DefaultConfig()))
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected append failure to propagate")
	}
}
