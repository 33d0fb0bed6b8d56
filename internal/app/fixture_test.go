package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Wednesday noon.
var testNow = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock         *fakeClock
	attempts      *memory.AttemptStore
	questions     *memory.QuestionStore
	users         *memory.UserDirectory
	presentations *memory.PresentationStore
	logs          *observer.ObservedLogs
	session       *app.QuizSession
	ranking       *app.Ranking
}

func newFixture(t *testing.T, questions ...domain.Question) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		clock:         &fakeClock{now: testNow},
		attempts:      memory.NewAttemptStore(),
		questions:     memory.NewQuestionStore(questions...),
		users:         memory.NewUserDirectory(),
		presentations: memory.NewPresentationStore(),
		logs:          logs,
	}
	opts := []app.Option{
		app.WithClock(f.clock.Now),
		app.WithLocation(time.UTC),
		app.WithLogger(zap.New(core)),
	}
	f.session = app.NewQuizSession(f.attempts, f.questions, f.presentations, app.QuizSessionConfig{
		Window:             app.QuizWindow{Start: app.TimeOfDay{Hour: 9}, Stop: app.TimeOfDay{Hour: 17}},
		AvgWordsPerMinute:  200,
		DefaultAllowedTime: 10,
	}, opts...)
	f.ranking = app.NewRanking(f.attempts, f.questions, f.users, opts...)
	return f
}

// record writes an attempt directly into the log.
func (f *fixture) record(t *testing.T, userID, questionID string, at time.Time, choice int, responseTime float64) {
	t.Helper()
	_, err := f.attempts.Upsert(context.Background(), domain.Attempt{
		UserID:              userID,
		QuestionID:          questionID,
		Date:                at,
		ChoiceID:            choice,
		ResponseTimeSeconds: responseTime,
	})
	require.NoError(t, err)
}

func today() time.Time {
	return time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
}

func question(id string, scheduled time.Time, correct int) domain.Question {
	return domain.Question{
		ID:            id,
		ScheduledDate: scheduled,
		Title:         "Question " + id,
		Choices: []domain.Choice{
			{ID: 1, Text: "one"},
			{ID: 2, Text: "two"},
			{ID: 3, Text: "three"},
		},
		CorrectChoiceID:    correct,
		AllowedTimeSeconds: 10,
	}
}
