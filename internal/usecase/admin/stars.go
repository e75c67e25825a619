package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/internal/usecase/namespace"
	"github.com/bnema/dockyard/internal/usecase/reconcile"
)

// StarRepository records that username follows repository path on the
// registry registryHost. Starring twice is a no-op; the boolean reports
// whether a star was added.
func (s *Service) StarRepository(ctx context.Context, registryHost, path, username string) (bool, error) {
	ctx = starContext(ctx, "StarRepository", registryHost, path, username)
	log := zerowrap.FromCtx(ctx)

	repo, user, err := s.starTarget(ctx, registryHost, path, username)
	if err != nil {
		return false, err
	}

	star, created, err := reconcile.FindOrCreate(ctx,
		func(ctx context.Context) (*domain.Star, error) {
			return s.stores.Stars.StarByUserAndRepository(ctx, user.ID, repo.ID)
		},
		func(ctx context.Context) (*domain.Star, error) {
			star := &domain.Star{UserID: user.ID, RepositoryID: repo.ID, CreatedAt: s.nowFn()}
			if err := s.stores.Stars.CreateStar(ctx, star); err != nil {
				return nil, err
			}
			return star, nil
		},
	)
	if err != nil {
		return false, log.WrapErr(err, "failed to star repository")
	}

	if created {
		log.Info().Int64(zerowrap.FieldEntityID, star.ID).Msg("repository starred")
	}
	return created, nil
}

// UnstarRepository removes the star username gave repository path. The
// boolean reports whether a star was removed.
func (s *Service) UnstarRepository(ctx context.Context, registryHost, path, username string) (bool, error) {
	ctx = starContext(ctx, "UnstarRepository", registryHost, path, username)
	log := zerowrap.FromCtx(ctx)

	repo, user, err := s.starTarget(ctx, registryHost, path, username)
	if err != nil {
		return false, err
	}

	err = s.stores.Stars.DeleteStar(ctx, user.ID, repo.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, log.WrapErr(err, "failed to unstar repository")
	}

	log.Info().Msg("repository unstarred")
	return true, nil
}

// StarredBy reports whether username starred repository path.
func (s *Service) StarredBy(ctx context.Context, registryHost, path, username string) (bool, error) {
	ctx = starContext(ctx, "StarredBy", registryHost, path, username)

	repo, user, err := s.starTarget(ctx, registryHost, path, username)
	if err != nil {
		return false, err
	}

	_, err = s.stores.Stars.StarByUserAndRepository(ctx, user.ID, repo.ID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, zerowrap.FromCtx(ctx).WrapErr(err, "failed to find star")
	}
}

func starContext(ctx context.Context, usecase, registryHost, path, username string) context.Context {
	return zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: usecase,
		zerowrap.FieldHost:    registryHost,
		"repository":          path,
		"username":            username,
	})
}

// starTarget looks up the repository and the user a star refers to.
// Nothing is created.
func (s *Service) starTarget(ctx context.Context, registryHost, path, username string) (*domain.Repository, *domain.User, error) {
	log := zerowrap.FromCtx(ctx)

	reg, err := s.registry(ctx, registryHost)
	if err != nil {
		return nil, nil, err
	}

	ns, name, err := namespace.NewResolver(s.stores.Namespaces).Resolve(ctx, reg, path)
	if err != nil {
		return nil, nil, err
	}

	repo, err := s.stores.Repositories.RepositoryByNamespaceAndName(ctx, ns.ID, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownRepository, path)
	}
	if err != nil {
		return nil, nil, log.WrapErr(err, "failed to find repository")
	}

	user, err := s.stores.Users.UserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownUser, username)
	}
	if err != nil {
		return nil, nil, log.WrapErr(err, "failed to find user")
	}

	return repo, user, nil
}
