package in

import (
	"context"
	"io"

	"github.com/bnema/dockyard/internal/domain"
)

// AdminService defines the contract for provisioning and catalogue queries.
type AdminService interface {
	CreateRegistry(ctx context.Context, name, hostname string) (*domain.Registry, bool, error)
	CreateUser(ctx context.Context, username, email string) (*domain.User, bool, error)
	CreateNamespace(ctx context.Context, registryHost, name, team string) (*domain.Namespace, bool, error)
	Seed(ctx context.Context, r io.Reader) (*domain.SeedResult, error)

	StarRepository(ctx context.Context, registryHost, path, username string) (bool, error)
	UnstarRepository(ctx context.Context, registryHost, path, username string) (bool, error)
	StarredBy(ctx context.Context, registryHost, path, username string) (bool, error)

	ListRegistries(ctx context.Context) ([]domain.Registry, error)
	ListRepositories(ctx context.Context, registryHost string) ([]domain.RepositoryView, error)
	ListActivities(ctx context.Context, limit int) ([]domain.ActivityView, error)
}
