// Package worker mirrors recorded expenses into an external sheet by
// draining the expense event queue.
package worker

import (
	"context"

	"ledgerbot/internal/events"
	"ledgerbot/internal/log"
)

// Appender is the export destination for recorded expenses.
type Appender interface {
	AppendExpense(ctx context.Context, msg *events.ExpenseRecorded) error
}

// Consumer is the read side of the event stream.
type Consumer interface {
	ConsumeExpenseRecorded(ctx context.Context, handler func(*events.ExpenseRecorded) error) error
}

type Worker struct {
	consumer Consumer
	appender Appender
	log      *log.Logger
}

func New(consumer Consumer, appender Appender, logger *log.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		appender: appender,
		log:      logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes events until the context is cancelled. Append failures
// propagate to the consumer, which requeues the event.
func (w *Worker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "Export worker started")
	return w.consumer.ConsumeExpenseRecorded(ctx, func(msg *events.ExpenseRecorded) error {
		return w.appender.AppendExpense(ctx, msg)
	})
}
