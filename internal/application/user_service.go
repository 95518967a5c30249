package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enterprise/user-service/internal/domain/entity"
	repo "github.com/enterprise/user-service/internal/domain/repository"
)

var (
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUserNotFound   = errors.New("user not found")
)

// Service enforces the user invariants the request shape cannot express:
// unique email and existence before mutation. It keeps no state of its own.
type Service struct {
	Repo repo.UserRepository
	// Now is the clock used for CreatedDate and LastModifiedDate.
	Now func() time.Time
}

func NewService(repo repo.UserRepository) *Service {
	return &Service{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// timestamp truncates to microseconds, the precision Postgres keeps.
func (s *Service) timestamp() time.Time {
	return s.Now().Truncate(time.Microsecond)
}

// Create persists a new user. The email is checked up front; the store's
// unique constraint covers concurrent creates that slip past the check.
func (s *Service) Create(ctx context.Context, candidate *entity.User) (*entity.User, error) {
	exists, err := s.Repo.ExistsByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	now := s.timestamp()
	u := &entity.User{
		Name:             candidate.Name,
		Email:            candidate.Email,
		Active:           candidate.Active,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		return nil, translate(err)
	}
	return saved, nil
}

// FindByID reports absence through the bool, not through the error.
func (s *Service) FindByID(ctx context.Context, id int64) (*entity.User, bool, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) FindAll(ctx context.Context) ([]entity.User, error) {
	users, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

// Update copies Name, Email and Active from patch onto the stored user.
// ID and CreatedDate always come from the stored record.
//
// Email uniqueness is not pre-checked here; a clash is still rejected by the
// store constraint and reported as ErrDuplicateEmail.
func (s *Service) Update(ctx context.Context, id int64, patch *entity.User) (*entity.User, error) {
	existing, found, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	now := s.timestamp()
	if !now.After(existing.LastModifiedDate) {
		now = existing.LastModifiedDate.Add(time.Microsecond)
	}

	u := &entity.User{
		ID:               existing.ID,
		Name:             patch.Name,
		Email:            patch.Email,
		Active:           patch.Active,
		CreatedDate:      existing.CreatedDate,
		LastModifiedDate: now,
	}
	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		return nil, translate(err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.Repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

// Ping checks that the store answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

// translate maps store errors onto the service error set.
func translate(err error) error {
	switch {
	case errors.Is(err, repo.ErrEmailTaken):
		return ErrDuplicateEmail
	case errors.Is(err, repo.ErrNotFound):
		return ErrUserNotFound
	default:
		return err
	}
}
