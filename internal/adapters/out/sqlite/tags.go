package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/dockyard/internal/domain"
)

// TagByRepositoryAndName finds a tag of a repository by name.
func (s *Store) TagByRepositoryAndName(ctx context.Context, repositoryID int64, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE repository_id = ? AND name = ?`,
		repositoryID, name)
	tag, err := scanTag(row)
	if err != nil {
		return nil, translate(err, "find tag "+name)
	}
	return tag, nil
}

// CreateTag stores tag and sets its ID. A zero AuthorID is stored as NULL;
// a duplicate name within the repository yields domain.ErrAlreadyExists.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	createdAt := s.now(tag.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (repository_id, name, author_id, created_at) VALUES (?, ?, ?, ?)`,
		tag.RepositoryID, tag.Name, nullID(tag.AuthorID), toMillis(createdAt))
	if err != nil {
		return translate(err, "create tag "+tag.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create tag "+tag.Name)
	}
	tag.ID = id
	tag.CreatedAt = createdAt
	return nil
}

// TagsOf returns the tags of a repository ordered by creation.
func (s *Store) TagsOf(ctx context.Context, repositoryID int64) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE repository_id = ? ORDER BY created_at, id`,
		repositoryID)
	if err != nil {
		return nil, translate(err, "list tags")
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, translate(err, "scan tag")
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list tags")
	}
	return tags, nil
}

// DeleteTags removes the named tags of one repository. Tags with the same
// name in other repositories are untouched.
func (s *Store) DeleteTags(ctx context.Context, repositoryID int64, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(names)+1)
	args = append(args, repositoryID)
	for _, name := range names {
		args = append(args, name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE repository_id = ? AND name IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("delete tags of repository %d", repositoryID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(err, fmt.Sprintf("delete tags of repository %d", repositoryID))
	}
	return n, nil
}
