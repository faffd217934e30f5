package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, auth0_id, email, name, created_at, updated_at`

func scanUser(row budgetScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Auth0ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

// GetByAuth0ID retrieves a user by their Auth0 subject
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

// CreateOrGetByAuth0ID upserts a user keyed by Auth0 subject, refreshing the
// email and display name from the token claims on each login
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (auth0_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (auth0_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = now()
		RETURNING `+userColumns,
		auth0ID, email, name)

	return scanUser(row)
}
