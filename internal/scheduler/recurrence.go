// Package scheduler implements the mailing dispatch engine: deciding which
// campaigns are due on a given date, delivering them, recording the attempt
// and computing the next occurrence.
package scheduler

import (
	"time"

	"github.com/mailflow-io/mailflow/internal/model"
)

// DateOnly strips the clock from t, leaving a UTC midnight date. All engine
// date comparisons go through this so wall-clock time never leaks in.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// NextDate computes the occurrence after current for the given frequency.
// Monthly recurrence clamps to the last valid day of the target month, so
// Jan 31 advances to Feb 28 (or 29 in a leap year) rather than overflowing.
// Frequency is one of the three enum values by construction; an unset
// frequency means "do not reschedule" and is the caller's concern.
func NextDate(current time.Time, freq model.Frequency) time.Time {
	switch freq {
	case model.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case model.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return addMonthClamped(current)
	}
	return current
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
