package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches the day's schedule and single questions with a TTL to avoid
// repeated store hits. Writes go to the store and drop the whole cache.
type QuestionCache struct {
	store app.QuestionStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu        sync.RWMutex
	schedules map[int64]cachedSchedule
	questions map[string]cachedQuestion
}

type cachedSchedule struct {
	questions []domain.Question
	expiresAt time.Time
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		store:     store,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		schedules: make(map[int64]cachedSchedule),
		questions: make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) ListScheduledSince(ctx context.Context, since time.Time) ([]domain.Question, error) {
	key := since.UnixNano()
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.schedules[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("schedule:"+since.Format(time.RFC3339Nano), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.schedules[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.store.ListScheduledSince(ctx, since)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.schedules[key] = cachedSchedule{questions: questions, expiresAt: expiresAt}
		for _, q := range questions {
			c.questions[q.ID] = cachedQuestion{question: q, expiresAt: expiresAt}
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
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
	now := c.clock()
	out := make(map[string]domain.Question, len(ids))
	missing := make([]string, 0)

	c.mu.RLock()
	for _, id := range ids {
		if entry, ok := c.questions[id]; ok && entry.expiresAt.After(now) {
			out[id] = entry.question
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}
	loaded, err := c.store.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(c.ttlWithJitter())
	c.mu.Lock()
	for id, q := range loaded {
		c.questions[id] = cachedQuestion{question: q, expiresAt: expiresAt}
		out[id] = q
	}
	c.mu.Unlock()
	return out, nil
}

func (c *QuestionCache) Save(ctx context.Context, q domain.Question) (domain.Question, error) {
	saved, err := c.store.Save(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	c.invalidate()
	return saved, nil
}

func (c *QuestionCache) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *QuestionCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedules = make(map[int64]cachedSchedule)
	c.questions = make(map[string]cachedQuestion)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
