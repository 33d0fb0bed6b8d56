package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionStore is an in-memory question catalog (useful for tests/demos).
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

func NewQuestionStore(questions ...domain.Question) *QuestionStore {
	s := &QuestionStore{questions: make(map[string]domain.Question, len(questions))}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	return s
}

func (s *QuestionStore) ListScheduledSince(_ context.Context, since time.Time) ([]domain.Question, error) {
	s.mu.RLock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if !q.ScheduledDate.Before(since) {
			out = append(out, q)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *QuestionStore) Get(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) GetMany(_ context.Context, ids []string) (map[string]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Question, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (s *QuestionStore) Save(_ context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions[q.ID] = q
	return q, nil
}

func (s *QuestionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}
