package sqlite

import (
	"context"
	"fmt"

	"github.com/bnema/dockyard/internal/domain"
)

// StarByUserAndRepository finds the star userID gave repositoryID.
func (s *Store) StarByUserAndRepository(ctx context.Context, userID, repositoryID int64) (*domain.Star, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+starColumns+` FROM stars WHERE user_id = ? AND repository_id = ?`,
		userID, repositoryID)
	star, err := scanStar(row)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("find star of user %d on repository %d", userID, repositoryID))
	}
	return star, nil
}

// CreateStar stores a star; a second star by the same user on the same
// repository yields domain.ErrAlreadyExists.
func (s *Store) CreateStar(ctx context.Context, star *domain.Star) error {
	createdAt := s.now(star.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stars (user_id, repository_id, created_at) VALUES (?, ?, ?)`,
		star.UserID, star.RepositoryID, toMillis(createdAt))
	if err != nil {
		return translate(err, fmt.Sprintf("star repository %d", star.RepositoryID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, fmt.Sprintf("star repository %d", star.RepositoryID))
	}
	star.ID = id
	star.CreatedAt = createdAt
	return nil
}

// DeleteStar removes the star userID gave repositoryID.
func (s *Store) DeleteStar(ctx context.Context, userID, repositoryID int64) error {
	op := fmt.Sprintf("unstar repository %d", repositoryID)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stars WHERE user_id = ? AND repository_id = ?`, userID, repositoryID)
	if err != nil {
		return translate(err, op)
	}
	return requireRow(res, op)
}

// StarCount returns how many users starred repositoryID.
func (s *Store) StarCount(ctx context.Context, repositoryID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stars WHERE repository_id = ?`, repositoryID).Scan(&n)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("count stars of repository %d", repositoryID))
	}
	return n, nil
}
