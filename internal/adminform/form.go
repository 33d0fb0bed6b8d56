// Package adminform turns the admin page's question form into a domain.Question.
//
// The page can hold several question forms, so every field arrives as name-N where N
// is the form's index on the page. Non-empty choice fields (choice, choice_a, choice2, ...)
// are numbered from 1 in field-name order.
package adminform

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"daily-quiz-service/internal/domain"
)

const dateLayout = "2006-01-02"

// Decode builds a validated question from the posted form. Questions without a date are
// scheduled at now.
func Decode(form url.Values, now time.Time) (domain.Question, error) {
	fields := make(map[string]string, len(form))
	choiceNames := make([]string, 0)
	for name, values := range form {
		if len(values) == 0 {
			continue
		}
		field := stripIndex(name)
		value := strings.TrimSpace(values[0])
		if strings.HasPrefix(field, "choice") {
			if value != "" {
				choiceNames = append(choiceNames, name)
				fields[name] = value
			}
			continue
		}
		fields[field] = value
	}

	sort.Slice(choiceNames, func(i, j int) bool { return lessChoice(choiceNames[i], choiceNames[j]) })
	q := domain.Question{
		ID:       fields["question_id"],
		Title:    fields["title"],
		ImageRef: fields["image"],
		Choices:  make([]domain.Choice, 0, len(choiceNames)),
	}
	for i, name := range choiceNames {
		q.Choices = append(q.Choices, domain.Choice{ID: i + 1, Text: fields[name]})
	}

	var err error
	if q.CorrectChoiceID, err = atoi(fields, "answer"); err != nil {
		return domain.Question{}, err
	}
	if raw := fields["allowed_time"]; raw != "" {
		if q.AllowedTimeSeconds, err = strconv.ParseFloat(raw, 64); err != nil {
			return domain.Question{}, fmt.Errorf("%w: allowed_time %q", domain.ErrInvalidQuestion, raw)
		}
	}
	q.ScheduledDate = now
	if raw := fields["date"]; raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			return domain.Question{}, fmt.Errorf("%w: date %q", domain.ErrInvalidQuestion, raw)
		}
		q.ScheduledDate = day
	}

	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// stripIndex drops a trailing "-N" from a field name.
func stripIndex(name string) string {
	i := strings.LastIndex(name, "-")
	if i < 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

// lessChoice orders choice2 before choice10.
func lessChoice(a, b string) bool {
	a, b = stripIndex(a), stripIndex(b)
	na, errA := strconv.Atoi(strings.TrimLeft(strings.TrimPrefix(a, "choice"), "_"))
	nb, errB := strconv.Atoi(strings.TrimLeft(strings.TrimPrefix(b, "choice"), "_"))
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}

func atoi(fields map[string]string, key string) (int, error) {
	raw := fields[key]
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidQuestion, key, raw)
	}
	return n, nil
}
