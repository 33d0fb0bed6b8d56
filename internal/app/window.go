package app

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", raw, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

// QuizWindow is the daily interval during which the quiz can be taken.
type QuizWindow struct {
	Start TimeOfDay
	Stop  TimeOfDay
}

// Contains reports whether the time of day of now lies in [Start, Stop].
// A window whose Stop is before its Start spans midnight.
func (w QuizWindow) Contains(now time.Time) bool {
	h, m, s := now.Clock()
	tod := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(now.Nanosecond())
	start, stop := w.Start.offset(), w.Stop.offset()
	if start <= stop {
		return start <= tod && tod <= stop
	}
	return tod >= start || tod <= stop
}

// WindowMode selects which side of the quiz window a check asks about.
type WindowMode string

const (
	WindowInside  WindowMode = "inside"
	WindowOutside WindowMode = "outside"
)

// IsLateAnswer reports whether an answer took longer than allowed.
// Late answers are only flagged, never rejected.
func IsLateAnswer(responseTimeSeconds, allowedTimeSeconds float64) bool {
	return responseTimeSeconds > allowedTimeSeconds
}

// AllowedReadingTime estimates how long reading text takes at wordsPerMinute.
// Estimates of ten seconds or less, and unusable input, yield fallback.
func AllowedReadingTime(text string, wordsPerMinute, fallback float64) float64 {
	words := len(strings.Fields(text))
	if wordsPerMinute <= 0 || words == 0 {
		return fallback
	}
	allowed := float64(words) * 60 / wordsPerMinute
	if allowed <= 10 {
		return fallback
	}
	return math.Round(allowed)
}
