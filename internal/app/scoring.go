package app

import (
	"context"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// scorer joins attempts with their questions. Both engines share it.
type scorer struct {
	attempts  AttemptStore
	questions QuestionCatalog
	logger    *zap.Logger
}

// resultsFor summarizes userID's attempts since the given bound (nil = all time).
// It returns nil when the user has no attempts in range.
func (s *scorer) resultsFor(ctx context.Context, userID string, since *time.Time) (*domain.Results, error) {
	attempts, err := s.attempts.FindByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionsFor(ctx, attempts)
	if err != nil {
		return nil, err
	}
	return s.summarize(attempts, questions), nil
}

// questionsFor loads every question referenced by attempts.
func (s *scorer) questionsFor(ctx context.Context, attempts []domain.Attempt) (map[string]domain.Question, error) {
	if len(attempts) == 0 {
		return map[string]domain.Question{}, nil
	}
	seen := make(map[string]struct{}, len(attempts))
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if _, ok := seen[a.QuestionID]; ok {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		ids = append(ids, a.QuestionID)
	}
	return s.questions.GetMany(ctx, ids)
}

// summarize scores attempts, skipping any whose question no longer exists.
// Placeholders count towards TotalQuestions but can never be correct.
func (s *scorer) summarize(attempts []domain.Attempt, questions map[string]domain.Question) *domain.Results {
	res := domain.Results{Details: make([]domain.ResultDetail, 0, len(attempts))}
	var totalTime float64
	for _, a := range attempts {
		q, ok := questions[a.QuestionID]
		if !ok {
			s.logger.Warn("skipping attempt with unknown question",
				zap.String("user_id", a.UserID),
				zap.String("question_id", a.QuestionID))
			continue
		}
		correct := a.ChoiceID == q.CorrectChoiceID
		res.TotalQuestions++
		if correct {
			res.TotalPoints++
		}
		totalTime += a.ResponseTimeSeconds
		res.Details = append(res.Details, domain.ResultDetail{
			QuestionID:        q.ID,
			QuestionTitle:     q.Title,
			CorrectChoiceID:   q.CorrectChoiceID,
			CorrectChoiceText: q.ChoiceText(q.CorrectChoiceID),
			ChosenChoiceID:    a.ChoiceID,
			Correct:           correct,
			ResponseTime:      a.ResponseTimeSeconds,
		})
	}
	if res.TotalQuestions == 0 {
		return nil
	}
	res.AvgResponseTime = round(totalTime/float64(res.TotalQuestions), 3)
	return &res
}

// groupByUser splits a scan into per-user attempt lists, keeping first-seen user order.
func groupByUser(attempts []domain.Attempt) ([]string, map[string][]domain.Attempt) {
	order := make([]string, 0)
	grouped := make(map[string][]domain.Attempt)
	for _, a := range attempts {
		if _, ok := grouped[a.UserID]; !ok {
			order = append(order, a.UserID)
		}
		grouped[a.UserID] = append(grouped[a.UserID], a)
	}
	return order, grouped
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
