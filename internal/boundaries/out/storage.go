package out

import (
	"context"
	"time"

	"github.com/bnema/dockyard/internal/domain"
)

// Lookups return domain.ErrNotFound when no row matches. Creates return
// domain.ErrAlreadyExists when a uniqueness constraint rejects the row.

// RegistryStore defines the contract for registry persistence.
type RegistryStore interface {
	// RegistryByHostname finds a registry by hostname, case-insensitively.
	RegistryByHostname(ctx context.Context, hostname string) (*domain.Registry, error)

	// CreateRegistry stores the registry together with its global namespace.
	// On success both IDs are set on reg.
	CreateRegistry(ctx context.Context, reg *domain.Registry) error

	// ListRegistries returns all registries ordered by creation.
	ListRegistries(ctx context.Context) ([]domain.Registry, error)
}

// NamespaceStore defines the contract for namespace persistence.
type NamespaceStore interface {
	NamespaceByID(ctx context.Context, id int64) (*domain.Namespace, error)
	NamespaceByName(ctx context.Context, registryID int64, name string) (*domain.Namespace, error)
	CreateNamespace(ctx context.Context, ns *domain.Namespace) error

	// NamespacesOf returns the namespaces of a registry ordered by creation.
	NamespacesOf(ctx context.Context, registryID int64) ([]domain.Namespace, error)
}

// RepositoryStore defines the contract for repository persistence.
type RepositoryStore interface {
	RepositoryByNamespaceAndName(ctx context.Context, namespaceID int64, name string) (*domain.Repository, error)
	CreateRepository(ctx context.Context, repo *domain.Repository) error

	// TouchRepository sets the repository's updated_at.
	TouchRepository(ctx context.Context, id int64, at time.Time) error

	// RepositoriesOf returns the repositories of a namespace ordered by creation.
	RepositoriesOf(ctx context.Context, namespaceID int64) ([]domain.Repository, error)

	// DeleteRepository removes a repository and its tags.
	DeleteRepository(ctx context.Context, id int64) error

	// DeleteEmptyRepository removes a repository only while it has no tags
	// and reports whether a row was deleted.
	DeleteEmptyRepository(ctx context.Context, id int64) (bool, error)
}

// TagStore defines the contract for tag persistence.
type TagStore interface {
	TagByRepositoryAndName(ctx context.Context, repositoryID int64, name string) (*domain.Tag, error)
	CreateTag(ctx context.Context, tag *domain.Tag) error

	// TagsOf returns the tags of a repository ordered by creation.
	TagsOf(ctx context.Context, repositoryID int64) ([]domain.Tag, error)

	// DeleteTags removes the named tags of one repository and returns how
	// many rows were deleted.
	DeleteTags(ctx context.Context, repositoryID int64, names []string) (int64, error)
}

// UserStore defines the contract for user persistence.
type UserStore interface {
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// StarStore defines the contract for repository stars.
type StarStore interface {
	StarByUserAndRepository(ctx context.Context, userID, repositoryID int64) (*domain.Star, error)
	CreateStar(ctx context.Context, star *domain.Star) error

	// DeleteStar removes a star; domain.ErrNotFound when there was none.
	DeleteStar(ctx context.Context, userID, repositoryID int64) error

	// StarCount returns how many users starred the repository.
	StarCount(ctx context.Context, repositoryID int64) (int, error)
}

// ActivityStore defines the contract for the append-only activity log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, activity *domain.Activity) error

	// RecentActivities returns up to limit activities, newest first.
	RecentActivities(ctx context.Context, limit int) ([]domain.ActivityView, error)
}
