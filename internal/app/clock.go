package app

import (
	"fmt"
	"strings"
	"time"

	"daily-quiz-service/internal/domain"
)

// Period selects the lower bound of a ranking window.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "alltime"
)

// ParsePeriod accepts "weekly", "monthly" and "alltime"; empty means all time.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return p, nil
	case "":
		return PeriodAllTime, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, raw)
	}
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week. Sunday is the 7th day of the week.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return startOfDay(t).AddDate(0, 0, -(weekday - 1))
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// PeriodStart resolves the lower bound of p relative to now; nil means unbounded.
func PeriodStart(p Period, now time.Time) *time.Time {
	var since time.Time
	switch p {
	case PeriodWeekly:
		since = startOfWeek(now)
	case PeriodMonthly:
		since = startOfMonth(now)
	default:
		return nil
	}
	return &since
}
