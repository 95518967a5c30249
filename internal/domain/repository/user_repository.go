package repository

import (
	"context"
	"errors"

	"github.com/enterprise/user-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a write would break the unique email constraint.
	ErrEmailTaken = errors.New("email already taken")
)

// UserRepository defines the storage contract for users.
//
// Save inserts when u.ID is zero (assigning the id) and updates otherwise.
// Implementations must enforce email uniqueness themselves and report a
// violation as ErrEmailTaken.
type UserRepository interface {
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
