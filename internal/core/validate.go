package core

import (
	"strconv"
	"strings"
	"time"
)

// ValidateDate rejects dates strictly after today. There is no lower
// bound: back-dated expenses are allowed.
func ValidateDate(d time.Time, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	picked := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	if picked.After(today) {
		return ErrFutureDate
	}
	return nil
}

// ParseDate parses a user-visible date string in the ledger format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, strings.TrimSpace(s))
}

// ValidateCategory checks membership against the configured category
// set, ignoring surrounding whitespace but not case: keyboards send the
// category exactly as configured.
func ValidateCategory(s string, known []string) (string, error) {
	s = strings.TrimSpace(s)
	for _, c := range known {
		if s == c {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// ParseGroupSize converts user-entered text into a member count.
// Returns ErrNotNumeric for non-integer text and ErrInvalidGroupSize
// for counts below one: per-member shares divide by this value.
func ParseGroupSize(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrNotNumeric
	}
	if n < 1 {
		return 0, ErrInvalidGroupSize
	}
	return n, nil
}
