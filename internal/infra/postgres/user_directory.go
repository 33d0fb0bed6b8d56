package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserDirectory reads accounts from the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

const userColumns = `id, username, is_admin, last_seen`

func (d *UserDirectory) Get(ctx context.Context, id string) (domain.User, error) {
	return d.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (d *UserDirectory) one(ctx context.Context, query string, arg string) (domain.User, error) {
	var u domain.User
	err := d.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.IsAdmin, &u.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (d *UserDirectory) List(ctx context.Context) ([]domain.User, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *UserDirectory) CountNonAdmin(ctx context.Context) (int, error) {
	var n int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE NOT is_admin`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (d *UserDirectory) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET last_seen = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Upsert registers or updates an account. The auth layer owns users; this is used by
// seeding and tests.
func (d *UserDirectory) Upsert(ctx context.Context, u domain.User) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, is_admin = EXCLUDED.is_admin, last_seen = EXCLUDED.last_seen`,
		u.ID, u.Username, u.IsAdmin, u.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
