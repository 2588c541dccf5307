package utils

import (
	"strings"
	"time"

	"cleanops/internal/types"
)

// CalculateNextDate returns the next occurrence of date under a repeat rule.
// Month arithmetic follows time.AddDate normalisation.
func CalculateNextDate(date time.Time, rule string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "daily":
		return date.AddDate(0, 0, 1), nil
	case "weekly":
		return date.AddDate(0, 0, 7), nil
	case "biweekly":
		return date.AddDate(0, 0, 14), nil
	case "monthly":
		return date.AddDate(0, 1, 0), nil
	case "yearly":
		return date.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, types.Validation("repeat", "unknown repeat rule %q", rule)
	}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}
