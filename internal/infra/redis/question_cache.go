package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches questions in Redis in front of a QuestionStore and falls back to
// the store on cache miss. Keys:
//
//	quiz:schedule:{unixSince}  JSON list of questions scheduled on or after since
//	quiz:question:{id}         JSON question
//	quiz:keys                  set of every key written, dropped on admin writes
type QuestionCache struct {
	client *redis.Client
	store  app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

const trackedKeys = "quiz:keys"

func NewQuestionCache(client *redis.Client, store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ListScheduledSince(ctx context.Context, since time.Time) ([]domain.Question, error) {
	key := scheduleKey(since)
	if questions, ok := c.cachedSchedule(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cachedSchedule(ctx, key); ok {
			return questions, nil
		}
		questions, err := c.store.ListScheduledSince(ctx, since)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		if raw, err := json.Marshal(questions); err == nil {
			pipe.Set(ctx, key, raw, ttl)
			pipe.SAdd(ctx, trackedKeys, key)
		}
		for _, q := range questions {
			c.queueQuestion(ctx, pipe, q, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cachedSchedule(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) Get(ctx context.Context, id string) (domain.Question, error) {
	found, err := c.GetMany(ctx, []string{id})
	if err != nil {
		return domain.Question{}, err
	}
	q, ok := found[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (c *QuestionCache) GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error) {
	out := make(map[string]domain.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = questionKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		values = make([]interface{}, len(ids))
	}

	missing := make([]string, 0)
	for i, id := range ids {
		raw, ok := values[i].(string)
		if !ok {
			missing = append(missing, id)
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = q
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.store.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	ttl := c.ttlWithJitter()
	pipe := c.client.Pipeline()
	for id, q := range loaded {
		out[id] = q
		c.queueQuestion(ctx, pipe, q, ttl)
	}
	_, _ = pipe.Exec(ctx)
	return out, nil
}

func (c *QuestionCache) queueQuestion(ctx context.Context, pipe redis.Pipeliner, q domain.Question, ttl time.Duration) {
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	key := questionKey(q.ID)
	pipe.Set(ctx, key, raw, ttl)
	pipe.SAdd(ctx, trackedKeys, key)
}

func (c *QuestionCache) Save(ctx context.Context, q domain.Question) (domain.Question, error) {
	saved, err := c.store.Save(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	return saved, c.invalidate(ctx)
}

func (c *QuestionCache) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	return c.invalidate(ctx)
}

// invalidate drops every cached key. A schedule may embed any question, so
// single-key eviction is not enough.
func (c *QuestionCache) invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, trackedKeys).Result()
	if err != nil {
		return err
	}
	keys = append(keys, trackedKeys)
	return c.client.Del(ctx, keys...).Err()
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func scheduleKey(since time.Time) string {
	return "quiz:schedule:" + strconv.FormatInt(since.Unix(), 10)
}

func questionKey(id string) string {
	return "quiz:question:" + id
}
