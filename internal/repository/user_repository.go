package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository defines the interface for user data access. The whole user
// (including the hashed password and the cart snapshot) is stored as a single
// JSON document; email and id lookups go through indexed extraction on that
// document.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user document
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	query := `INSERT INTO users (id, data) VALUES ($1, $2)`

	_, err = r.db.ExecContext(ctx, query, user.ID, doc)
	if err != nil {
		// Unique violation on the email index means a duplicate registration
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by extracting the email field from the
// document. The comparison is case-insensitive and backed by the lower()
// expression index, so case variants of a stored address all resolve.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT data FROM users WHERE lower(data->>'email') = lower($1)`
	return r.findOne(ctx, query, email)
}

// FindByID retrieves a user by primary key
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT data FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// Update rewrites the whole user document. Concurrent updates are
// last-writer-wins; there is no document versioning.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	query := `UPDATE users SET data = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, user.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user := &domain.User{}
	if err := json.Unmarshal(doc, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return user, nil
}
