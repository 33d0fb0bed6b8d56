package postgres

import (
	"context"
	"fmt"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore keeps the attempt log in Postgres. The (user_id, question_id) primary
// key makes Upsert a single atomic statement.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

const attemptColumns = `user_id, question_id, date, choice_id, response_time_seconds`

func (s *AttemptStore) Upsert(ctx context.Context, a domain.Attempt) (domain.Attempt, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, question_id) DO UPDATE
		SET date = EXCLUDED.date,
		    choice_id = EXCLUDED.choice_id,
		    response_time_seconds = EXCLUDED.response_time_seconds`,
		a.UserID, a.QuestionID, a.Date, a.ChoiceID, a.ResponseTimeSeconds)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("upsert attempt: %w", err)
	}
	return a, nil
}

func (s *AttemptStore) CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM attempts WHERE user_id = $1 AND date >= $2`, userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *AttemptStore) FindByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attemptColumns+` FROM attempts
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR date >= $2)
		ORDER BY date, question_id`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}
	return scanAttempts(rows)
}

func (s *AttemptStore) FindSince(ctx context.Context, since *time.Time) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attemptColumns+` FROM attempts
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		ORDER BY date, user_id, question_id`, since)
	if err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}
	return scanAttempts(rows)
}

func scanAttempts(rows pgx.Rows) ([]domain.Attempt, error) {
	defer rows.Close()
	out := make([]domain.Attempt, 0)
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.UserID, &a.QuestionID, &a.Date, &a.ChoiceID, &a.ResponseTimeSeconds); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
