package app

import (
	"context"
	"time"

	"daily-quiz-service/internal/domain"
)

// AttemptStore is the attempt log. Upsert must be atomic per (user, question).
type AttemptStore interface {
	Upsert(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error)
	// FindByUser and FindSince return attempts ordered by date ascending; a nil since is unbounded.
	FindByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Attempt, error)
	FindSince(ctx context.Context, since *time.Time) ([]domain.Attempt, error)
}

// QuestionCatalog is the read side of the question store.
type QuestionCatalog interface {
	// ListScheduledSince returns questions scheduled on or after since, ordered by schedule.
	ListScheduledSince(ctx context.Context, since time.Time) ([]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	// GetMany omits ids that do not exist.
	GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error)
}

// UserDirectory is the read side of the auth layer's user store.
type UserDirectory interface {
	Get(ctx context.Context, id string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	CountNonAdmin(ctx context.Context) (int, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

// PresentationStore remembers the question each user is currently shown.
type PresentationStore interface {
	Put(ctx context.Context, p domain.Presentation) error
	// Get returns domain.ErrNothingShown when nothing is recorded for the user.
	Get(ctx context.Context, userID string) (domain.Presentation, error)
	Delete(ctx context.Context, userID string) error
}

// QuestionStore is the full question catalog, including the admin write side.
type QuestionStore interface {
	QuestionCatalog
	// Save inserts q when its ID is empty (assigning one) and replaces it otherwise.
	Save(ctx context.Context, q domain.Question) (domain.Question, error)
	Delete(ctx context.Context, id string) error
}
