// Package memory provides a map-backed user store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository keeps users in a map guarded by a RWMutex. The email index
// plays the role of the database unique constraint.
type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]entity.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[int64]entity.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[u.Email]; ok && owner != u.ID {
		return nil, repository.ErrEmailTaken
	}

	rec := *u
	if rec.IsNew() {
		r.nextID++
		rec.ID = r.nextID
	} else {
		prev, ok := r.users[rec.ID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		rec.CreatedDate = prev.CreatedDate
		delete(r.byEmail, prev.Email)
	}

	r.users[rec.ID] = rec
	r.byEmail[rec.Email] = rec.ID
	return &rec, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// FindAll returns users ordered by id.
func (r *UserRepository) FindAll(_ context.Context) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *UserRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	delete(r.byEmail, u.Email)
	return nil
}

func (r *UserRepository) Ping(context.Context) error { return nil }
