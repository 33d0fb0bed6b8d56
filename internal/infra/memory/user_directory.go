package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
)

// UserDirectory is an in-memory user directory.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserDirectory(users ...domain.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Put adds or replaces a user.
func (d *UserDirectory) Put(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *UserDirectory) Get(_ context.Context, id string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *UserDirectory) FindByUsername(_ context.Context, username string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *UserDirectory) List(_ context.Context) ([]domain.User, error) {
	d.mu.RLock()
	out := make([]domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (d *UserDirectory) CountNonAdmin(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	count := 0
	for _, u := range d.users {
		if !u.IsAdmin {
			count++
		}
	}
	return count, nil
}

func (d *UserDirectory) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastSeen = at
	d.users[id] = u
	return nil
}
