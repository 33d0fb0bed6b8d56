package redis

import (
	"context"
	"strconv"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PresentationStore keeps the question each user is looking at in a Redis hash, so an
// answer can be timed by whichever instance receives it:
//
//	HSET quiz:shown:{userID} question {id} shown_at {unix nanos} allowed {seconds}
type PresentationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresentationStore expires stale presentations after ttl; zero keeps them forever.
func NewPresentationStore(client *redis.Client, ttl time.Duration) *PresentationStore {
	return &PresentationStore{client: client, ttl: ttl}
}

func (s *PresentationStore) Put(ctx context.Context, p domain.Presentation) error {
	key := s.key(p.UserID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"question", p.QuestionID,
		"shown_at", strconv.FormatInt(p.ShownAt.UnixNano(), 10),
		"allowed", strconv.FormatFloat(p.AllowedTimeSeconds, 'f', -1, 64),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *PresentationStore) Get(ctx context.Context, userID string) (domain.Presentation, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return domain.Presentation{}, err
	}
	if len(fields) == 0 {
		return domain.Presentation{}, domain.ErrNothingShown
	}
	nanos, err := strconv.ParseInt(fields["shown_at"], 10, 64)
	if err != nil {
		return domain.Presentation{}, err
	}
	allowed, err := strconv.ParseFloat(fields["allowed"], 64)
	if err != nil {
		return domain.Presentation{}, err
	}
	return domain.Presentation{
		UserID:             userID,
		QuestionID:         fields["question"],
		ShownAt:            time.Unix(0, nanos),
		AllowedTimeSeconds: allowed,
	}, nil
}

func (s *PresentationStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *PresentationStore) key(userID string) string {
	return "quiz:shown:" + userID
}
