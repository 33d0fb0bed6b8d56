package app

import (
	"context"
	"errors"
	"fmt"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/observability"
	"go.uber.org/zap"
)

// QuizSessionConfig carries the process-wide quiz settings.
type QuizSessionConfig struct {
	Window             QuizWindow
	AvgWordsPerMinute  float64
	DefaultAllowedTime float64
}

// QuizSession moves a user through today's questions and records their answers.
type QuizSession struct {
	scorer
	presentations PresentationStore
	cfg           QuizSessionConfig
	opts          options
	metrics       *observability.Metrics
}

func NewQuizSession(attempts AttemptStore, questions QuestionCatalog, presentations PresentationStore, cfg QuizSessionConfig, opts ...Option) *QuizSession {
	o := newOptions(opts)
	return &QuizSession{
		scorer:        scorer{attempts: attempts, questions: questions, logger: o.logger},
		presentations: presentations,
		cfg:           cfg,
		opts:          o,
		metrics:       o.metrics,
	}
}

// PositionForToday counts the user's attempts since midnight, shown or answered.
// The count is the zero-based index of the next question to show.
func (s *QuizSession) PositionForToday(ctx context.Context, userID string) (int, error) {
	return s.attempts.CountByUserSince(ctx, userID, startOfDay(s.opts.today()))
}

// NextQuestion returns today's question at index. It returns domain.ErrNoQuizToday when
// nothing is scheduled today and a nil question once index is past the last one.
func (s *QuizSession) NextQuestion(ctx context.Context, index int) (*domain.DeliveredQuestion, error) {
	questions, err := s.questions.ListScheduledSince(ctx, startOfDay(s.opts.today()))
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuizToday
	}
	if index < 0 || index >= len(questions) {
		return nil, nil
	}
	q := questions[index]
	return &domain.DeliveredQuestion{
		Question:           q,
		Index:              index + 1,
		Total:              len(questions),
		ReadingTimeSeconds: AllowedReadingTime(q.Title, s.cfg.AvgWordsPerMinute, s.cfg.DefaultAllowedTime),
	}, nil
}

// MarkShown writes the placeholder attempt that consumes the question for the user.
// Calling it again for the same pair leaves a single attempt.
func (s *QuizSession) MarkShown(ctx context.Context, userID, questionID string) (domain.Attempt, error) {
	return s.attempts.Upsert(ctx, domain.Attempt{
		UserID:              userID,
		QuestionID:          questionID,
		Date:                s.opts.now(),
		ChoiceID:            domain.UnansweredChoice,
		ResponseTimeSeconds: 0,
	})
}

// RecordAnswer overwrites the user's attempt for the question with the real answer.
func (s *QuizSession) RecordAnswer(ctx context.Context, userID, questionID string, choiceID int, responseTimeSeconds float64) (domain.Attempt, error) {
	return s.attempts.Upsert(ctx, domain.Attempt{
		UserID:              userID,
		QuestionID:          questionID,
		Date:                s.opts.now(),
		ChoiceID:            choiceID,
		ResponseTimeSeconds: responseTimeSeconds,
	})
}

// IsWithinQuizWindow evaluates the configured window against the current time of day.
func (s *QuizSession) IsWithinQuizWindow(mode WindowMode) bool {
	inside := s.cfg.Window.Contains(s.opts.today())
	switch mode {
	case WindowInside:
		return inside
	case WindowOutside:
		return !inside
	default:
		return false
	}
}

// Step is the outcome of asking for the next question. Exactly one field is set.
type Step struct {
	Question *domain.DeliveredQuestion `json:"question,omitempty"`
	Results  *domain.Results           `json:"results,omitempty"`
}

// Completed reports whether today's quiz is over for the user.
func (st Step) Completed() bool {
	return st.Question == nil
}

// ShowNext delivers the user's next question and marks it shown before returning.
// Once all of today's questions are consumed it returns today's results instead.
func (s *QuizSession) ShowNext(ctx context.Context, userID string) (Step, error) {
	position, err := s.PositionForToday(ctx, userID)
	if err != nil {
		return Step{}, err
	}
	next, err := s.NextQuestion(ctx, position)
	if err != nil {
		return Step{}, err
	}
	if next == nil {
		today := startOfDay(s.opts.today())
		results, err := s.resultsFor(ctx, userID, &today)
		if err != nil {
			return Step{}, err
		}
		s.logger.Info("quiz completed", zap.String("user_id", userID))
		return Step{Results: results}, nil
	}

	attempt, err := s.MarkShown(ctx, userID, next.Question.ID)
	if err != nil {
		return Step{}, err
	}
	if err := s.presentations.Put(ctx, domain.Presentation{
		UserID:             userID,
		QuestionID:         next.Question.ID,
		ShownAt:            attempt.Date,
		AllowedTimeSeconds: next.Question.AllowedTimeSeconds,
	}); err != nil {
		return Step{}, err
	}
	s.metrics.ObserveShown()
	s.logger.Info("showing question",
		zap.String("user_id", userID),
		zap.String("question_id", next.Question.ID),
		zap.Int("index", next.Index),
		zap.Int("total", next.Total))
	return Step{Question: next}, nil
}

// AnswerOutcome describes a recorded answer.
type AnswerOutcome struct {
	Attempt            domain.Attempt `json:"attempt"`
	AllowedTimeSeconds float64        `json:"allowedTimeSeconds"`
	Late               bool           `json:"late"`
}

// Answer records choiceID for the question the user is currently shown, measuring the
// response time from when it was shown. Late answers are logged but still recorded.
// A choice the question does not have is rejected and the question stays shown.
func (s *QuizSession) Answer(ctx context.Context, userID string, choiceID int) (AnswerOutcome, error) {
	shown, err := s.presentations.Get(ctx, userID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	q, err := s.questions.Get(ctx, shown.QuestionID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if !q.HasChoice(choiceID) {
		return AnswerOutcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidChoice, choiceID)
	}

	responseTime := round(s.opts.now().Sub(shown.ShownAt).Seconds(), 3)
	if responseTime < 0 {
		responseTime = 0
	}
	late := IsLateAnswer(responseTime, shown.AllowedTimeSeconds)
	if late {
		s.logger.Warn("possible fraud: response time exceeds allowed time",
			zap.String("user_id", userID),
			zap.String("question_id", shown.QuestionID),
			zap.Float64("allowed_time", shown.AllowedTimeSeconds),
			zap.Float64("response_time", responseTime))
	}

	attempt, err := s.RecordAnswer(ctx, userID, shown.QuestionID, choiceID, responseTime)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if err := s.presentations.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNothingShown) {
		return AnswerOutcome{}, err
	}
	s.metrics.ObserveAnswer(responseTime, late)
	return AnswerOutcome{Attempt: attempt, AllowedTimeSeconds: shown.AllowedTimeSeconds, Late: late}, nil
}
