package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// UserRepo resolves principals. Authentication proper lives outside this
// service; this repo only supports the token lookup the API middleware needs.
type UserRepo struct {
	DB *sql.DB
}

var _ core.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// GetByToken resolves an API token to its user.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUserNotFound
	}

	u := &model.User{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, api_token, created_at
		FROM users
		WHERE api_token = $1
	`, token).Scan(&u.ID, &u.Username, &u.APIToken, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, api_token, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.APIToken, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
