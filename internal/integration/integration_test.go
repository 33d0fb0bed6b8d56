package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/postgres"
	pgmigrations "daily-quiz-service/internal/infra/postgres/migrations"
	infraredis "daily-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

var noon = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

type env struct {
	attempts  *postgres.AttemptStore
	questions *infraredis.QuestionCache
	users     *postgres.UserDirectory
	session   *app.QuizSession
	ranking   *app.Ranking
	now       time.Time
	mu        sync.Mutex
}

func (e *env) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *env) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	e := &env{
		attempts:  postgres.NewAttemptStore(pool),
		questions: infraredis.NewQuestionCache(redisClient, postgres.NewQuestionStore(pool), 5*time.Minute),
		users:     postgres.NewUserDirectory(pool),
		now:       noon,
	}
	opts := []app.Option{app.WithClock(e.clock), app.WithLocation(time.UTC)}
	e.session = app.NewQuizSession(e.attempts, e.questions, infraredis.NewPresentationStore(redisClient, time.Hour), app.QuizSessionConfig{
		Window:             app.QuizWindow{Start: app.TimeOfDay{Hour: 9}, Stop: app.TimeOfDay{Hour: 17}},
		AvgWordsPerMinute:  200,
		DefaultAllowedTime: 10,
	}, opts...)
	e.ranking = app.NewRanking(e.attempts, e.questions, e.users, opts...)

	for _, u := range []domain.User{
		{ID: "u1", Username: "alice", LastSeen: noon},
		{ID: "u2", Username: "bob", LastSeen: noon},
		{ID: "root", Username: "admin", IsAdmin: true, LastSeen: noon},
	} {
		require.NoError(t, e.users.Upsert(ctx, u))
	}
	return e
}

func TestDailyQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	a, err := e.questions.Save(ctx, sampleQuestion("Capital of France?", 0, 1))
	require.NoError(t, err)
	b, err := e.questions.Save(ctx, sampleQuestion("Largest planet?", 1, 2))
	require.NoError(t, err)

	step, err := e.session.ShowNext(ctx, "u1")
	require.NoError(t, err)
	require.False(t, step.Completed())
	assert.Equal(t, a.ID, step.Question.Question.ID)
	assert.Equal(t, []domain.Choice{{ID: 1, Text: "yes"}, {ID: 2, Text: "no"}}, step.Question.Question.Choices)

	e.advance(4 * time.Second)
	outcome, err := e.session.Answer(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, outcome.Attempt.ResponseTimeSeconds)

	step, err = e.session.ShowNext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, step.Question.Question.ID)

	e.advance(20 * time.Second)
	outcome, err = e.session.Answer(ctx, "u1", 1)
	require.NoError(t, err)
	assert.True(t, outcome.Late)

	step, err = e.session.ShowNext(ctx, "u1")
	require.NoError(t, err)
	require.True(t, step.Completed())
	assert.Equal(t, 1, step.Results.TotalPoints)
	assert.Equal(t, 12.0, step.Results.AvgResponseTime)

	// bob only sees the first question
	_, err = e.session.ShowNext(ctx, "u2")
	require.NoError(t, err)

	entries, err := e.ranking.TopRanks(ctx, app.PeriodWeekly, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RankEntry{Score: 1, Username: "alice", AvgResponseTime: 12, Rank: 1}, entries[0])
	assert.Equal(t, domain.RankEntry{Score: 0, Username: "bob", AvgResponseTime: 0, Rank: 2}, entries[1])

	stats, err := e.ranking.DailyBasicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DailyAttendees)
	assert.Equal(t, 2, stats.TotalUsersCount)
	assert.Equal(t, 100, stats.AttendeePercentage)

	diff, err := e.ranking.ToughestAndEasiest(ctx)
	require.NoError(t, err)
	require.Len(t, diff.Toughest, 2)
	require.Len(t, diff.Easiest, 1)
	assert.Equal(t, a.ID, diff.Easiest[0].QuestionID)
}

func TestConcurrentUpsertKeepsOneAttempt(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.attempts.Upsert(ctx, domain.Attempt{
				UserID: "u1", QuestionID: "q1", Date: noon, ChoiceID: i%3 + 1, ResponseTimeSeconds: float64(i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := e.attempts.CountByUserSince(ctx, "u1", noon.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeletedQuestionIsSkipped(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	q, err := e.questions.Save(ctx, sampleQuestion("Gone soon?", 0, 1))
	require.NoError(t, err)
	_, err = e.session.ShowNext(ctx, "u1")
	require.NoError(t, err)
	_, err = e.session.Answer(ctx, "u1", 1)
	require.NoError(t, err)

	require.NoError(t, e.questions.Delete(ctx, q.ID))
	_, err = e.questions.Get(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	res, err := e.ranking.ResultsFor(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func sampleQuestion(title string, minute, correct int) domain.Question {
	return domain.Question{
		ScheduledDate: time.Date(2024, 5, 8, 0, minute, 0, 0, time.UTC),
		Title:         title,
		Choices: []domain.Choice{
			{ID: 1, Text: "yes"},
			{ID: 2, Text: "no"},
		},
		CorrectChoiceID:    correct,
		AllowedTimeSeconds: 10,
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
