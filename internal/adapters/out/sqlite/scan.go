package sqlite

import (
	"database/sql"
	"time"

	"github.com/bnema/dockyard/internal/domain"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

const registryColumns = `id, name, hostname, global_namespace_id, created_at`

func scanRegistry(s scanner) (*domain.Registry, error) {
	var (
		reg       domain.Registry
		globalID  sql.NullInt64
		createdAt int64
	)
	if err := s.Scan(&reg.ID, &reg.Name, &reg.Hostname, &globalID, &createdAt); err != nil {
		return nil, err
	}
	reg.GlobalNamespaceID = globalID.Int64
	reg.CreatedAt = fromMillis(createdAt)
	return &reg, nil
}

const namespaceColumns = `id, registry_id, name, global, team, created_at`

func scanNamespace(s scanner) (*domain.Namespace, error) {
	var (
		ns        domain.Namespace
		createdAt int64
	)
	if err := s.Scan(&ns.ID, &ns.RegistryID, &ns.Name, &ns.Global, &ns.Team, &createdAt); err != nil {
		return nil, err
	}
	ns.CreatedAt = fromMillis(createdAt)
	return &ns, nil
}

const repositoryColumns = `id, namespace_id, name, created_at, updated_at`

func scanRepository(s scanner) (*domain.Repository, error) {
	var (
		repo                 domain.Repository
		createdAt, updatedAt int64
	)
	if err := s.Scan(&repo.ID, &repo.NamespaceID, &repo.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	repo.CreatedAt = fromMillis(createdAt)
	repo.UpdatedAt = fromMillis(updatedAt)
	return &repo, nil
}

const tagColumns = `id, repository_id, name, author_id, created_at`

func scanTag(s scanner) (*domain.Tag, error) {
	var (
		tag       domain.Tag
		authorID  sql.NullInt64
		createdAt int64
	)
	if err := s.Scan(&tag.ID, &tag.RepositoryID, &tag.Name, &authorID, &createdAt); err != nil {
		return nil, err
	}
	tag.AuthorID = authorID.Int64
	tag.CreatedAt = fromMillis(createdAt)
	return &tag, nil
}

const userColumns = `id, username, email, created_at`

func scanUser(s scanner) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	if err := s.Scan(&user.ID, &user.Username, &user.Email, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

const starColumns = `id, user_id, repository_id, created_at`

func scanStar(s scanner) (*domain.Star, error) {
	var (
		star      domain.Star
		createdAt int64
	)
	if err := s.Scan(&star.ID, &star.UserID, &star.RepositoryID, &createdAt); err != nil {
		return nil, err
	}
	star.CreatedAt = fromMillis(createdAt)
	return &star, nil
}

// nullID stores zero as NULL.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
