package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
)

type attemptKey struct {
	userID     string
	questionID string
}

type attemptRecord struct {
	attempt domain.Attempt
	seq     uint64
}

// AttemptStore is an in-memory attempt log. Upserts are serialized by a mutex, so
// concurrent writers for the same (user, question) always end with one record.
type AttemptStore struct {
	mu      sync.RWMutex
	seq     uint64
	records map[attemptKey]*attemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{records: make(map[attemptKey]*attemptRecord)}
}

func (s *AttemptStore) Upsert(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey{userID: attempt.UserID, questionID: attempt.QuestionID}
	if rec, ok := s.records[key]; ok {
		rec.attempt = attempt
		return attempt, nil
	}
	s.seq++
	s.records[key] = &attemptRecord{attempt: attempt, seq: s.seq}
	return attempt, nil
}

func (s *AttemptStore) CountByUserSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key, rec := range s.records {
		if key.userID == userID && !rec.attempt.Date.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *AttemptStore) FindByUser(_ context.Context, userID string, since *time.Time) ([]domain.Attempt, error) {
	return s.find(func(a domain.Attempt) bool {
		return a.UserID == userID && inRange(a, since)
	}), nil
}

func (s *AttemptStore) FindSince(_ context.Context, since *time.Time) ([]domain.Attempt, error) {
	return s.find(func(a domain.Attempt) bool { return inRange(a, since) }), nil
}

// Len returns the number of stored attempts.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// find copies matching attempts out under the read lock, ordered by date then insertion.
func (s *AttemptStore) find(match func(domain.Attempt) bool) []domain.Attempt {
	s.mu.RLock()
	recs := make([]attemptRecord, 0, len(s.records))
	for _, rec := range s.records {
		if match(rec.attempt) {
			recs = append(recs, *rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].attempt.Date.Equal(recs[j].attempt.Date) {
			return recs[i].attempt.Date.Before(recs[j].attempt.Date)
		}
		return recs[i].seq < recs[j].seq
	})
	out := make([]domain.Attempt, len(recs))
	for i, rec := range recs {
		out[i] = rec.attempt
	}
	return out
}

func inRange(a domain.Attempt, since *time.Time) bool {
	return since == nil || !a.Date.Before(*since)
}
