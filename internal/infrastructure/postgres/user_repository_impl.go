package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, phone, address, dob, answer_hash, password_hash, role, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role int16
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.DOB,
		&u.Answer, &u.Password, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, phone, address, dob, answer_hash, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.Phone, u.Address, u.DOB, u.Answer, u.Password, int16(u.Role))

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrUserNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, digest string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, digest))
}

// UpdateProfile applies only the non-nil fields of patch; NULL parameters keep
// the stored column.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.User, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    address = COALESCE($4, address),
		    password_hash = COALESCE($5, password_hash),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, patch.Name, patch.Phone, patch.Address, patch.Password))
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, int16(role)))
}

var _ repository.UserRepository = (*UserRepository)(nil)
