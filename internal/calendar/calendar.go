// Package calendar renders a month grid as an inline keyboard and
// interprets the button presses coming back from it.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"ledgerbot/internal/transport"
)

const (
	prefix     = "cal"
	actionPrev = "prev"
	actionNext = "next"
	actionDay  = "day"
	actionNoop = "noop"

	monthKeyFormat = "2006-01"
	dayKeyFormat   = "2006-01-02"
)

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Markup builds the inline keyboard for the month containing ref.
func Markup(ref time.Time) *transport.Markup {
	year, month, _ := ref.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthKey := first.Format(monthKeyFormat)

	noop := transport.Button{Text: " ", Data: data(actionNoop, "")}

	rows := [][]transport.Button{
		{{Text: first.Format("January 2006"), Data: data(actionNoop, "")}},
	}

	header := make([]transport.Button, 0, len(weekdayHeader))
	for _, wd := range weekdayHeader {
		header = append(header, transport.Button{Text: wd, Data: data(actionNoop, "")})
	}
	rows = append(rows, header)

	// Monday-first layout: Sunday sits in column 6.
	offset := (int(first.Weekday()) + 6) % 7
	daysInMonth := first.AddDate(0, 1, -1).Day()

	week := make([]transport.Button, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, noop)
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		week = append(week, transport.Button{
			Text: fmt.Sprintf("%d", day),
			Data: data(actionDay, date.Format(dayKeyFormat)),
		})
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]transport.Button, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, noop)
		}
		rows = append(rows, week)
	}

	rows = append(rows, []transport.Button{
		{Text: "<", Data: data(actionPrev, monthKey)},
		{Text: " ", Data: data(actionNoop, "")},
		{Text: ">", Data: data(actionNext, monthKey)},
	})

	return &transport.Markup{Inline: rows}
}

// Result is the outcome of one button press. Exactly one of Date and
// Redraw is meaningful: a day press yields Date, month navigation
// yields a replacement Redraw markup, and noop presses yield neither.
type Result struct {
	Date   time.Time
	Picked bool
	Redraw *transport.Markup
}

// Process interprets callback data produced by Markup. Data that does
// not belong to the calendar widget is reported with ok=false.
func Process(callbackData string) (Result, bool) {
	parts := strings.SplitN(callbackData, ":", 3)
	if len(parts) < 2 || parts[0] != prefix {
		return Result{}, false
	}
	action := parts[1]
	arg := ""
	if len(parts) == 3 {
		arg = parts[2]
	}

	switch action {
	case actionNoop:
		return Result{}, true
	case actionDay:
		date, err := time.Parse(dayKeyFormat, arg)
		if err != nil {
			return Result{}, false
		}
		return Result{Date: date, Picked: true}, true
	case actionPrev, actionNext:
		month, err := time.Parse(monthKeyFormat, arg)
		if err != nil {
			return Result{}, false
		}
		delta := 1
		if action == actionPrev {
			delta = -1
		}
		return Result{Redraw: Markup(month.AddDate(0, delta, 0))}, true
	default:
		return Result{}, false
	}
}

func data(action, arg string) string {
	if arg == "" {
		return prefix + ":" + action
	}
	return prefix + ":" + action + ":" + arg
}
