package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/internal/domain/repository"
)

const (
	uniqueViolation  = "23505"
	emailUniqueIndex = "users_email_key"
)

const userColumns = `id, name, email, created_date, last_modified_date, is_active`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	out := *u
	var row pgx.Row
	if u.IsNew() {
		row = r.pool.QueryRow(ctx, `
			INSERT INTO users (name, email, created_date, last_modified_date, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_date, last_modified_date
		`, u.Name, u.Email, u.CreatedDate, u.LastModifiedDate, u.Active)
	} else {
		row = r.pool.QueryRow(ctx, `
			UPDATE users
			SET name = $1, email = $2, last_modified_date = $3, is_active = $4
			WHERE id = $5
			RETURNING id, created_date, last_modified_date
		`, u.Name, u.Email, u.LastModifiedDate, u.Active, u.ID)
	}

	if err := row.Scan(&out.ID, &out.CreatedDate, &out.LastModifiedDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if isEmailConflict(err) {
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return exists, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedDate, &u.LastModifiedDate, &u.Active); err != nil {
		return nil, err
	}
	return u, nil
}

// isEmailConflict reports whether err is the unique violation on users.email.
func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailUniqueIndex
}

var _ repository.UserRepository = (*UserRepository)(nil)
