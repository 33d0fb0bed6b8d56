package app_test

import (
	"context"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyQuizScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		question("A", today().Add(8*time.Hour), 1),
		question("B", today().Add(8*time.Hour+5*time.Minute), 2),
	)
	midnight := today()

	step, err := f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	require.False(t, step.Completed())
	assert.Equal(t, "A", step.Question.Question.ID)
	assert.Equal(t, 1, step.Question.Index)
	assert.Equal(t, 2, step.Question.Total)

	f.clock.Advance(4 * time.Second)
	outcome, err := f.session.Answer(ctx, "U", 1)
	require.NoError(t, err)
	assert.False(t, outcome.Late)
	assert.Equal(t, 4.0, outcome.Attempt.ResponseTimeSeconds)

	res, err := f.ranking.ResultsFor(ctx, "U", &midnight)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.TotalPoints)
	assert.Equal(t, 1, res.TotalQuestions)

	step, err = f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, "B", step.Question.Question.ID)

	f.clock.Advance(20 * time.Second)
	outcome, err = f.session.Answer(ctx, "U", 1)
	require.NoError(t, err)
	assert.True(t, outcome.Late)
	assert.True(t, app.IsLateAnswer(outcome.Attempt.ResponseTimeSeconds, 10))
	assert.Equal(t, 1, f.logs.FilterMessage("possible fraud: response time exceeds allowed time").Len())

	res, err = f.ranking.ResultsFor(ctx, "U", &midnight)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalPoints)
	assert.Equal(t, 2, res.TotalQuestions)
	assert.Equal(t, 12.0, res.AvgResponseTime)
	assert.Equal(t, "one", res.Details[0].CorrectChoiceText)
	assert.False(t, res.Details[1].Correct)

	position, err := f.session.PositionForToday(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, 2, position)

	next, err := f.session.NextQuestion(ctx, position)
	require.NoError(t, err)
	assert.Nil(t, next)

	step, err = f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	require.True(t, step.Completed())
	assert.Equal(t, 2, step.Results.TotalQuestions)
}

func TestMarkShownAndRecordAnswerKeepOneAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1))

	for i := 0; i < 3; i++ {
		_, err := f.session.MarkShown(ctx, "U", "A")
		require.NoError(t, err)
	}
	_, err := f.session.RecordAnswer(ctx, "U", "A", 2, 3.5)
	require.NoError(t, err)
	_, err = f.session.MarkShown(ctx, "U", "A")
	require.NoError(t, err)

	assert.Equal(t, 1, f.attempts.Len())
	position, err := f.session.PositionForToday(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, 1, position)
}

func TestRecordAnswerDoesNotAdvancePosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1), question("B", today().Add(2*time.Hour), 1))

	_, err := f.session.MarkShown(ctx, "U", "A")
	require.NoError(t, err)
	before, err := f.session.PositionForToday(ctx, "U")
	require.NoError(t, err)

	_, err = f.session.RecordAnswer(ctx, "U", "A", 1, 2)
	require.NoError(t, err)
	after, err := f.session.PositionForToday(ctx, "U")
	require.NoError(t, err)

	assert.Equal(t, 1, before)
	assert.Equal(t, before, after)
}

// Showing a question consumes it, so asking again before answering moves on.
func TestRefreshBeforeAnsweringSkipsQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1), question("B", today().Add(2*time.Hour), 1))

	first, err := f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	second, err := f.session.ShowNext(ctx, "U")
	require.NoError(t, err)

	assert.Equal(t, "A", first.Question.Question.ID)
	assert.Equal(t, "B", second.Question.Question.ID)

	outcome, err := f.session.Answer(ctx, "U", 1)
	require.NoError(t, err)
	assert.Equal(t, "B", outcome.Attempt.QuestionID)

	res, err := f.ranking.ResultsFor(ctx, "U", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalQuestions)
	assert.Equal(t, 1, res.TotalPoints)
	assert.Equal(t, domain.UnansweredChoice, res.Details[0].ChosenChoiceID)
}

func TestPositionIsMonotonicAndBounded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1), question("B", today().Add(2*time.Hour), 1))

	last := 0
	for i := 0; i < 5; i++ {
		_, err := f.session.ShowNext(ctx, "U")
		require.NoError(t, err)
		position, err := f.session.PositionForToday(ctx, "U")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, position, last)
		assert.LessOrEqual(t, position, 2)
		last = position
	}
	assert.Equal(t, 2, last)
}

func TestYesterdaysAttemptsDoNotCountToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1))
	f.record(t, "U", "old", today().Add(-time.Hour), 1, 3)

	position, err := f.session.PositionForToday(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, 0, position)
}

func TestNoQuizToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("old", today().Add(-24*time.Hour), 1))

	_, err := f.session.NextQuestion(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNoQuizToday)

	_, err = f.session.ShowNext(ctx, "U")
	assert.ErrorIs(t, err, domain.ErrNoQuizToday)
	assert.Equal(t, 0, f.attempts.Len())
}

func TestNextQuestionOrdersBySchedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		question("late", today().Add(10*time.Hour), 1),
		question("early", today().Add(1*time.Hour), 1),
	)

	next, err := f.session.NextQuestion(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "early", next.Question.ID)
	assert.Equal(t, 10.0, next.ReadingTimeSeconds)

	next, err = f.session.NextQuestion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "late", next.Question.ID)
}

func TestAnswerWithoutShownQuestion(t *testing.T) {
	f := newFixture(t, question("A", today().Add(time.Hour), 1))

	_, err := f.session.Answer(context.Background(), "U", 1)
	assert.ErrorIs(t, err, domain.ErrNothingShown)
	assert.Equal(t, 0, f.attempts.Len())
}

func TestAnswerTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1))

	_, err := f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	_, err = f.session.Answer(ctx, "U", 1)
	require.NoError(t, err)
	_, err = f.session.Answer(ctx, "U", 2)
	assert.ErrorIs(t, err, domain.ErrNothingShown)
}

func TestAnswerRejectsUnknownChoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, question("A", today().Add(time.Hour), 1))

	_, err := f.session.ShowNext(ctx, "U")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	for _, choice := range []int{domain.UnansweredChoice, 0, 99} {
		_, err := f.session.Answer(ctx, "U", choice)
		assert.ErrorIs(t, err, domain.ErrInvalidChoice, "choice %d", choice)
	}

	attempts, err := f.attempts.FindByUser(ctx, "U", nil)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.UnansweredChoice, attempts[0].ChoiceID)
	assert.Zero(t, attempts[0].ResponseTimeSeconds)

	outcome, err := f.session.Answer(ctx, "U", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Attempt.ChoiceID)
	assert.Equal(t, 3.0, outcome.Attempt.ResponseTimeSeconds)
	assert.Equal(t, 1, f.attempts.Len())
}

func TestIsWithinQuizWindow(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.session.IsWithinQuizWindow(app.WindowInside))
	assert.False(t, f.session.IsWithinQuizWindow(app.WindowOutside))

	f.clock.Advance(6 * time.Hour) // 18:00
	assert.False(t, f.session.IsWithinQuizWindow(app.WindowInside))
	assert.True(t, f.session.IsWithinQuizWindow(app.WindowOutside))

	assert.False(t, f.session.IsWithinQuizWindow(app.WindowMode("sideways")))
}
