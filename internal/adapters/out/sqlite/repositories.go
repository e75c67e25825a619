package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/dockyard/internal/domain"
)

// RepositoryByNamespaceAndName finds a repository by its bare name within a
// namespace.
func (s *Store) RepositoryByNamespaceAndName(ctx context.Context, namespaceID int64, name string) (*domain.Repository, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE namespace_id = ? AND name = ?`,
		namespaceID, name)
	repo, err := scanRepository(row)
	if err != nil {
		return nil, translate(err, "find repository "+name)
	}
	return repo, nil
}

// CreateRepository stores repo with updated_at equal to created_at and sets
// its ID; a duplicate name within the namespace yields
// domain.ErrAlreadyExists.
func (s *Store) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	createdAt := s.now(repo.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO repositories (namespace_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		repo.NamespaceID, repo.Name, toMillis(createdAt), toMillis(createdAt))
	if err != nil {
		return translate(err, "create repository "+repo.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create repository "+repo.Name)
	}
	repo.ID = id
	repo.CreatedAt = createdAt
	repo.UpdatedAt = createdAt
	return nil
}

// TouchRepository sets the repository's updated_at.
func (s *Store) TouchRepository(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET updated_at = ? WHERE id = ?`, toMillis(s.now(at)), id)
	if err != nil {
		return translate(err, fmt.Sprintf("touch repository %d", id))
	}
	return requireRow(res, fmt.Sprintf("touch repository %d", id))
}

// RepositoriesOf returns the repositories of a namespace ordered by creation.
func (s *Store) RepositoriesOf(ctx context.Context, namespaceID int64) ([]domain.Repository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE namespace_id = ? ORDER BY created_at, id`,
		namespaceID)
	if err != nil {
		return nil, translate(err, "list repositories")
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, translate(err, "scan repository")
		}
		repos = append(repos, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list repositories")
	}
	return repos, nil
}

// DeleteRepository removes a repository; its tags go with it through the
// foreign key cascade.
func (s *Store) DeleteRepository(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete repository %d", id))
	}
	return requireRow(res, fmt.Sprintf("delete repository %d", id))
}

// DeleteEmptyRepository removes a repository only while it has no tags. The
// check and the delete are one statement, so a tag committed concurrently
// keeps its repository.
func (s *Store) DeleteEmptyRepository(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM repositories WHERE id = ? AND NOT EXISTS (SELECT 1 FROM tags WHERE repository_id = ?)`,
		id, id)
	if err != nil {
		return false, translate(err, fmt.Sprintf("delete empty repository %d", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete empty repository %d: %w", id, err)
	}
	return n > 0, nil
}
