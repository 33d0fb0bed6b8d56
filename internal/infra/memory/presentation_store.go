package memory

import (
	"context"
	"sync"

	"daily-quiz-service/internal/domain"
)

// PresentationStore is an in-memory implementation of app.PresentationStore.
type PresentationStore struct {
	mu            sync.RWMutex
	presentations map[string]domain.Presentation
}

func NewPresentationStore() *PresentationStore {
	return &PresentationStore{
		presentations: make(map[string]domain.Presentation),
	}
}

func (s *PresentationStore) Put(_ context.Context, p domain.Presentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentations[p.UserID] = p
	return nil
}

func (s *PresentationStore) Get(_ context.Context, userID string) (domain.Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presentations[userID]
	if !ok {
		return domain.Presentation{}, domain.ErrNothingShown
	}
	return p, nil
}

func (s *PresentationStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presentations, userID)
	return nil
}
