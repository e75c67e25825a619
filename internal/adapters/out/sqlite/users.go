package sqlite

import (
	"context"
	"fmt"

	"github.com/bnema/dockyard/internal/domain"
)

// UserByID finds a user by ID.
func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("find user %d", id))
	}
	return user, nil
}

// UserByUsername finds a user by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "find user "+username)
	}
	return user, nil
}

// CreateUser stores user and sets its ID; a taken username yields
// domain.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	createdAt := s.now(user.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)`,
		user.Username, user.Email, toMillis(createdAt))
	if err != nil {
		return translate(err, "create user "+user.Username)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create user "+user.Username)
	}
	user.ID = id
	user.CreatedAt = createdAt
	return nil
}
