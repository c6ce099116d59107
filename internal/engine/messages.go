package engine

import (
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport"
)

const helpHint = "/add, /history, /group, /calc, /chat or /help."

const helpText = `Here is what I can do:

/add - record an expense, yours or a group's
/history - see past expenses in a currency of your choice
/group - create, list or delete shared groups
/calc - convert an amount between currencies
/chat - ask questions about your spending
/currencies - list supported currency codes
/convert <amount> <from> to <to> - quick conversion
/cancel - abandon the current conversation

I wait 2 minutes for each answer before giving up.`

// Common report currencies offered as buttons; any supported code can
// still be typed in.
var suggestedCurrencies = []string{"USD", "EUR", "GBP", "INR"}

const (
	actionCreate = "Create Group"
	actionView   = "View All Groups"
	actionDelete = "Delete Group"
)

func flowLabel(f session.Flow) string {
	switch f {
	case session.FlowAdd:
		return "expense"
	case session.FlowHistory:
		return "history"
	case session.FlowGroup:
		return "group"
	case session.FlowCalc:
		return "calculator"
	case session.FlowAdvisory:
		return "chat"
	default:
		return string(f)
	}
}

func scopeKeyboard() *transport.Markup {
	return &transport.Markup{Reply: [][]string{{"Individual", "Group"}}}
}

func currencyKeyboard() *transport.Markup {
	return &transport.Markup{Reply: [][]string{suggestedCurrencies}}
}

func actionKeyboard() *transport.Markup {
	return &transport.Markup{Reply: [][]string{{actionCreate}, {actionView}, {actionDelete}}}
}

// oneButtonPerRow keeps long labels readable on small screens.
func oneButtonPerRow(labels []string) *transport.Markup {
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{label})
	}
	return &transport.Markup{Reply: rows}
}

func categoryKeyboard(categories []string) *transport.Markup {
	rows := make([][]string, 0, (len(categories)+1)/2)
	for i := 0; i < len(categories); i += 2 {
		row := []string{categories[i]}
		if i+1 < len(categories) {
			row = append(row, categories[i+1])
		}
		rows = append(rows, row)
	}
	return &transport.Markup{Reply: rows}
}
