// Package transport defines the messaging port the engine talks
// through, and the inbound update shape the router consumes.
package transport

import (
	"context"

	"ledgerbot/internal/core"
)

// Button is one inline keyboard button with its callback payload.
type Button struct {
	Text string
	Data string
}

// Markup describes the keyboard attached to an outbound message.
// At most one of Reply, Inline or RemoveReply is meaningful.
type Markup struct {
	// Reply is a one-time reply keyboard, one row per slice.
	Reply [][]string
	// Inline is an inline keyboard of callback buttons.
	Inline [][]Button
	// RemoveReply clears any reply keyboard on the user's screen.
	RemoveReply bool
	// Monospace renders the text preformatted (reports, tables).
	Monospace bool
}

// Sender pushes messages to a user. Implementations must be safe for
// concurrent use.
type Sender interface {
	// Send delivers text to the user, returning the message id.
	Send(ctx context.Context, id core.UserID, text string, markup *Markup) (int, error)

	// Edit rewrites a previously sent message in place, used by the
	// calendar widget to redraw its keyboard.
	Edit(ctx context.Context, id core.UserID, messageID int, text string, markup *Markup) error
}

// Callback is a keyboard button press.
type Callback struct {
	ID        string
	MessageID int
	Data      string
}

// Update is one inbound event: either a text message or a callback.
type Update struct {
	UserID   core.UserID
	Text     string
	Callback *Callback
}
