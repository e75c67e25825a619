// Package admin provisions registries, users and namespaces and serves the
// read side of the catalogue.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/internal/usecase/reconcile"
	"github.com/bnema/dockyard/pkg/validation"
)

// Stores groups the persistence ports the admin service needs.
type Stores struct {
	Registries   out.RegistryStore
	Namespaces   out.NamespaceStore
	Repositories out.RepositoryStore
	Tags         out.TagStore
	Users        out.UserStore
	Activities   out.ActivityStore
	Stars        out.StarStore
}

// Service implements the AdminService interface.
type Service struct {
	stores Stores
	nowFn  func() time.Time
}

// NewService creates an admin service.
func NewService(stores Stores) *Service {
	return &Service{
		stores: stores,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// CreateRegistry registers a registry host together with its global
// namespace. An existing registry with the same hostname is returned as is.
func (s *Service) CreateRegistry(ctx context.Context, name, hostname string) (*domain.Registry, bool, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "CreateRegistry",
		zerowrap.FieldHost:    hostname,
	})
	log := zerowrap.FromCtx(ctx)

	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if err := validation.ValidateHostname(hostname); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidHostname, err)
	}
	if name == "" {
		name = hostname
	}

	reg, created, err := reconcile.FindOrCreate(ctx,
		func(ctx context.Context) (*domain.Registry, error) {
			return s.stores.Registries.RegistryByHostname(ctx, hostname)
		},
		func(ctx context.Context) (*domain.Registry, error) {
			reg := &domain.Registry{Name: name, Hostname: hostname, CreatedAt: s.nowFn()}
			if err := s.stores.Registries.CreateRegistry(ctx, reg); err != nil {
				return nil, err
			}
			return reg, nil
		},
	)
	if err != nil {
		return nil, false, log.WrapErr(err, "failed to create registry")
	}

	if created {
		log.Info().Int64(zerowrap.FieldEntityID, reg.ID).Msg("registry created")
	}
	return reg, created, nil
}

// CreateUser registers a user able to push. An existing user with the same
// username is returned as is.
func (s *Service) CreateUser(ctx context.Context, username, email string) (*domain.User, bool, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "CreateUser",
		"username":            username,
	})
	log := zerowrap.FromCtx(ctx)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidName, err)
	}

	user, created, err := reconcile.FindOrCreate(ctx,
		func(ctx context.Context) (*domain.User, error) {
			return s.stores.Users.UserByUsername(ctx, username)
		},
		func(ctx context.Context) (*domain.User, error) {
			user := &domain.User{Username: username, Email: email, CreatedAt: s.nowFn()}
			if err := s.stores.Users.CreateUser(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		},
	)
	if err != nil {
		return nil, false, log.WrapErr(err, "failed to create user")
	}

	if created {
		log.Info().Int64(zerowrap.FieldEntityID, user.ID).Msg("user created")
	}
	return user, created, nil
}

// CreateNamespace provisions a namespace on the registry known under
// registryHost. Repositories pushed as "<name>/<repo>" are accepted only
// once their namespace exists.
func (s *Service) CreateNamespace(ctx context.Context, registryHost, name, team string) (*domain.Namespace, bool, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "CreateNamespace",
		zerowrap.FieldHost:    registryHost,
		"namespace":           name,
	})
	log := zerowrap.FromCtx(ctx)

	if err := validation.ValidateNamespaceName(name); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidName, err)
	}

	reg, err := s.registry(ctx, registryHost)
	if err != nil {
		return nil, false, err
	}

	ns, created, err := reconcile.FindOrCreate(ctx,
		func(ctx context.Context) (*domain.Namespace, error) {
			return s.stores.Namespaces.NamespaceByName(ctx, reg.ID, name)
		},
		func(ctx context.Context) (*domain.Namespace, error) {
			ns := &domain.Namespace{RegistryID: reg.ID, Name: name, Team: team, CreatedAt: s.nowFn()}
			if err := s.stores.Namespaces.CreateNamespace(ctx, ns); err != nil {
				return nil, err
			}
			return ns, nil
		},
	)
	if err != nil {
		return nil, false, log.WrapErr(err, "failed to create namespace")
	}

	if created {
		log.Info().Int64(zerowrap.FieldEntityID, ns.ID).Msg("namespace created")
	}
	return ns, created, nil
}

// ListRepositories returns every repository of a registry with its tags and
// star count, in creation order.
func (s *Service) ListRepositories(ctx context.Context, registryHost string) ([]domain.RepositoryView, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ListRepositories",
		zerowrap.FieldHost:    registryHost,
	})
	log := zerowrap.FromCtx(ctx)

	reg, err := s.registry(ctx, registryHost)
	if err != nil {
		return nil, err
	}

	namespaces, err := s.stores.Namespaces.NamespacesOf(ctx, reg.ID)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list namespaces")
	}

	var views []domain.RepositoryView
	for _, ns := range namespaces {
		repos, err := s.stores.Repositories.RepositoriesOf(ctx, ns.ID)
		if err != nil {
			return nil, log.WrapErr(err, "failed to list repositories")
		}
		for _, repo := range repos {
			tags, err := s.stores.Tags.TagsOf(ctx, repo.ID)
			if err != nil {
				return nil, log.WrapErr(err, "failed to list tags")
			}
			stars, err := s.stores.Stars.StarCount(ctx, repo.ID)
			if err != nil {
				return nil, log.WrapErr(err, "failed to count stars")
			}
			views = append(views, domain.RepositoryView{
				Registry:   reg.Hostname,
				Namespace:  ns,
				Repository: repo,
				Tags:       tags,
				Stars:      stars,
			})
		}
	}
	return views, nil
}

// ListRegistries returns every registry in creation order.
func (s *Service) ListRegistries(ctx context.Context) ([]domain.Registry, error) {
	registries, err := s.stores.Registries.ListRegistries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registries: %w", err)
	}
	return registries, nil
}

// ListActivities returns up to limit activities, newest first.
func (s *Service) ListActivities(ctx context.Context, limit int) ([]domain.ActivityView, error) {
	if limit <= 0 {
		limit = 50
	}
	views, err := s.stores.Activities.RecentActivities(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return views, nil
}

func (s *Service) registry(ctx context.Context, hostname string) (*domain.Registry, error) {
	reg, err := s.stores.Registries.RegistryByHostname(ctx, hostname)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRegistry, hostname)
	}
	if err != nil {
		return nil, zerowrap.FromCtx(ctx).WrapErr(err, "failed to find registry")
	}
	return reg, nil
}
