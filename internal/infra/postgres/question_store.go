package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore persists questions with their choices as JSONB.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, scheduled_date, title, choices, correct_choice_id, allowed_time_seconds, image_ref`

func (s *QuestionStore) ListScheduledSince(ctx context.Context, since time.Time) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE scheduled_date >= $1
		ORDER BY scheduled_date, id`, since)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionStore) GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error) {
	out := make(map[string]domain.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

func (s *QuestionStore) Save(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal choices: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET scheduled_date = EXCLUDED.scheduled_date,
		    title = EXCLUDED.title,
		    choices = EXCLUDED.choices,
		    correct_choice_id = EXCLUDED.correct_choice_id,
		    allowed_time_seconds = EXCLUDED.allowed_time_seconds,
		    image_ref = EXCLUDED.image_ref`,
		q.ID, q.ScheduledDate, q.Title, string(choices), q.CorrectChoiceID, q.AllowedTimeSeconds, q.ImageRef)
	if err != nil {
		return domain.Question{}, fmt.Errorf("save question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		choices []byte
	)
	if err := row.Scan(&q.ID, &q.ScheduledDate, &q.Title, &choices, &q.CorrectChoiceID, &q.AllowedTimeSeconds, &q.ImageRef); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(choices, &q.Choices); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal choices: %w", err)
	}
	return q, nil
}
