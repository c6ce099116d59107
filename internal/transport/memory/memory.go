// Package memory is an in-process transport used by tests: it records
// everything sent and never fails.
package memory

import (
	"context"
	"sync"

	"ledgerbot/internal/core"
	"ledgerbot/internal/transport"
)

type Sent struct {
	UserID    core.UserID
	MessageID int
	Text      string
	Markup    *transport.Markup
	Edited    bool
}

type Transport struct {
	mu     sync.Mutex
	nextID int
	sent   []Sent
}

func New() *Transport {
	return &Transport{}
}

func (t *Transport) Send(_ context.Context, id core.UserID, text string, markup *transport.Markup) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.sent = append(t.sent, Sent{UserID: id, MessageID: t.nextID, Text: text, Markup: markup})
	return t.nextID, nil
}

func (t *Transport) Edit(_ context.Context, id core.UserID, messageID int, text string, markup *transport.Markup) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, Sent{UserID: id, MessageID: messageID, Text: text, Markup: markup, Edited: true})
	return nil
}

// Messages returns a copy of everything sent so far.
func (t *Transport) Messages() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent(nil), t.sent...)
}

// Last returns the most recent message, or a zero value when none.
func (t *Transport) Last() Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return Sent{}
	}
	return t.sent[len(t.sent)-1]
}

// Reset clears the recorded messages.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
}
