package adminform

import (
	"net/url"
	"testing"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 8, 18, 0, 0, 0, time.UTC)

func TestDecodeStripsFormIndex(t *testing.T) {
	form := url.Values{
		"question_id-3":  {"q-42"},
		"title-3":        {"Capital of France?"},
		"choice1-3":      {"Paris"},
		"choice2-3":      {"  "},
		"choice3-3":      {"Lyon"},
		"choice10-3":     {"Nice"},
		"answer-3":       {"1"},
		"allowed_time-3": {"15"},
		"date-3":         {"2024-05-09"},
	}

	q, err := Decode(form, now)
	require.NoError(t, err)

	assert.Equal(t, "q-42", q.ID)
	assert.Equal(t, "Capital of France?", q.Title)
	assert.Equal(t, []domain.Choice{
		{ID: 1, Text: "Paris"},
		{ID: 2, Text: "Lyon"},
		{ID: 3, Text: "Nice"},
	}, q.Choices)
	assert.Equal(t, 1, q.CorrectChoiceID)
	assert.Equal(t, 15.0, q.AllowedTimeSeconds)
	assert.True(t, q.ScheduledDate.Equal(time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)))
}

func TestDecodeDefaultsDateToNow(t *testing.T) {
	form := url.Values{
		"title-0":        {"2 + 2?"},
		"choice1-0":      {"4"},
		"choice2-0":      {"5"},
		"answer-0":       {"1"},
		"allowed_time-0": {"10"},
	}
	q, err := Decode(form, now)
	require.NoError(t, err)
	assert.Empty(t, q.ID)
	assert.True(t, q.ScheduledDate.Equal(now))
}

func TestDecodeRejectsInvalidForms(t *testing.T) {
	base := func() url.Values {
		return url.Values{
			"title-0":        {"2 + 2?"},
			"choice1-0":      {"4"},
			"choice2-0":      {"5"},
			"answer-0":       {"1"},
			"allowed_time-0": {"10"},
		}
	}
	cases := map[string]func(url.Values){
		"answer not a number": func(v url.Values) { v.Set("answer-0", "one") },
		"answer out of range": func(v url.Values) { v.Set("answer-0", "3") },
		"one choice":          func(v url.Values) { v.Del("choice2-0") },
		"missing title":       func(v url.Values) { v.Del("title-0") },
		"bad allowed time":    func(v url.Values) { v.Set("allowed_time-0", "soon") },
		"missing allowed":     func(v url.Values) { v.Del("allowed_time-0") },
		"bad date":            func(v url.Values) { v.Set("date-0", "09/05/2024") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := base()
			mutate(form)
			_, err := Decode(form, now)
			assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
		})
	}
}

func TestStripIndex(t *testing.T) {
	assert.Equal(t, "allowed_time", stripIndex("allowed_time-12"))
	assert.Equal(t, "title", stripIndex("title"))
	assert.Equal(t, "image-ref", stripIndex("image-ref"))
}
