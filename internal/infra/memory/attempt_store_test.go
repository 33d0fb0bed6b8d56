package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptStoreUpsertKeepsOneRecordPerPair(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	_, err := store.Upsert(ctx, domain.Attempt{UserID: "u1", QuestionID: "q1", Date: base, ChoiceID: domain.UnansweredChoice})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, domain.Attempt{UserID: "u1", QuestionID: "q1", Date: base.Add(time.Minute), ChoiceID: 2, ResponseTimeSeconds: 4})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	got, err := store.FindByUser(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ChoiceID)
	assert.Equal(t, 4.0, got[0].ResponseTimeSeconds)
}

func TestAttemptStoreConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Upsert(ctx, domain.Attempt{UserID: "u1", QuestionID: "q1", Date: now, ChoiceID: domain.UnansweredChoice})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestAttemptStoreFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	seed := []domain.Attempt{
		{UserID: "u2", QuestionID: "q2", Date: day.Add(3 * time.Hour), ChoiceID: 1},
		{UserID: "u1", QuestionID: "q1", Date: day.Add(-time.Hour), ChoiceID: 1},
		{UserID: "u1", QuestionID: "q2", Date: day.Add(2 * time.Hour), ChoiceID: 1},
	}
	for _, a := range seed {
		_, err := store.Upsert(ctx, a)
		require.NoError(t, err)
	}

	count, err := store.CountByUserSince(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := store.FindSince(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q1", all[0].QuestionID)
	assert.Equal(t, "u2", all[2].UserID)

	today, err := store.FindSince(ctx, &day)
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "u1", today[0].UserID)
}
