// Package reconcile brings stored repositories and tags in line with what a
// registry reports, either one push at a time or from a full tag listing.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/zerowrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/pkg/validation"
)

// NamespaceResolver maps a repository path onto its namespace and bare name.
type NamespaceResolver interface {
	Resolve(ctx context.Context, reg *domain.Registry, path string) (*domain.Namespace, string, error)
}

// Service reconciles repositories and tags.
type Service struct {
	resolver NamespaceResolver
	repos    out.RepositoryStore
	tags     out.TagStore
	metrics  *telemetry.Metrics
	nowFn    func() time.Time
}

// NewService creates a reconcile service.
func NewService(resolver NamespaceResolver, repos out.RepositoryStore, tags out.TagStore) *Service {
	return &Service{
		resolver: resolver,
		repos:    repos,
		tags:     tags,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// SetMetrics sets the telemetry instruments. Must be called before the
// service handles traffic.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// ReconcilePush makes sure repository name exists in ns and carries tag
// tagName. The author is recorded only when the tag is created here; a tag
// that already exists keeps its original author.
func (s *Service) ReconcilePush(ctx context.Context, ns *domain.Namespace, name, tagName string, author *domain.User) (*domain.Repository, *domain.Tag, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ReconcilePush",
		"repository":          name,
		"tag":                 tagName,
	})
	log := zerowrap.FromCtx(ctx)

	now := s.nowFn()

	repo, repoCreated, err := s.findOrCreateRepository(ctx, ns.ID, name, now)
	if err != nil {
		return nil, nil, log.WrapErr(err, "failed to find or create repository")
	}

	var authorID int64
	if author != nil {
		authorID = author.ID
	}

	tag, tagCreated, err := s.findOrCreateTag(ctx, repo.ID, tagName, authorID, now)
	if err != nil {
		if repoCreated {
			s.discardRepository(ctx, repo)
		}
		return nil, nil, log.WrapErr(err, "failed to find or create tag")
	}

	if tagCreated && !repoCreated {
		if err := s.repos.TouchRepository(ctx, repo.ID, now); err != nil {
			return nil, nil, log.WrapErr(err, "failed to touch repository")
		}
		repo.UpdatedAt = now
	}

	switch {
	case repoCreated:
		log.Info().Int64(zerowrap.FieldEntityID, repo.ID).Msg("repository created")
	case tagCreated:
		log.Info().Int64(zerowrap.FieldEntityID, tag.ID).Msg("tag created")
	default:
		log.Debug().Msg("repository and tag already known")
	}

	return repo, tag, nil
}

// discardRepository removes a repository this push created when its tag
// could not be stored, unless a concurrent push has tagged it meanwhile. It
// runs detached from ctx cancellation.
func (s *Service) discardRepository(ctx context.Context, repo *domain.Repository) {
	log := zerowrap.FromCtx(ctx)

	deleted, err := s.repos.DeleteEmptyRepository(context.WithoutCancel(ctx), repo.ID)
	if err != nil {
		log.Error().Err(err).Int64(zerowrap.FieldEntityID, repo.ID).Msg("failed to discard untagged repository")
		return
	}
	if deleted {
		log.Warn().Int64(zerowrap.FieldEntityID, repo.ID).Msg("discarded untagged repository")
	}
}

// CreateOrUpdate reconciles one repository of reg against desc and returns
// the stored repository.
func (s *Service) CreateOrUpdate(ctx context.Context, reg *domain.Registry, desc domain.RepositoryDescriptor) (*domain.Repository, error) {
	repo, _, err := s.Reconcile(ctx, reg, desc)
	return repo, err
}

// Reconcile is CreateOrUpdate reporting which tags it created and deleted.
// After it succeeds the repository's tag set equals the distinct names in
// desc.Tags. Tags are created without an author. Namespaces are resolved,
// never created: a repository under an unprovisioned namespace yields
// domain.ErrUnknownNamespace.
func (s *Service) Reconcile(ctx context.Context, reg *domain.Registry, desc domain.RepositoryDescriptor) (*domain.Repository, domain.TagChanges, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "CreateOrUpdate",
		zerowrap.FieldHost:    reg.Hostname,
		"repository":          desc.Name,
	})
	log := zerowrap.FromCtx(ctx)

	var changes domain.TagChanges

	if err := validateDescriptor(desc); err != nil {
		return nil, changes, err
	}

	ns, name, err := s.resolver.Resolve(ctx, reg, desc.Name)
	if err != nil {
		return nil, changes, err
	}

	now := s.nowFn()

	repo, repoCreated, err := s.findOrCreateRepository(ctx, ns.ID, name, now)
	if err != nil {
		return nil, changes, log.WrapErr(err, "failed to find or create repository")
	}

	existing, err := s.tags.TagsOf(ctx, repo.ID)
	if err != nil {
		return nil, changes, log.WrapErr(err, "failed to list tags")
	}

	have := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		have[tag.Name] = struct{}{}
	}

	want := make(map[string]struct{}, len(desc.Tags))
	for _, tagName := range desc.Tags {
		if _, dup := want[tagName]; dup {
			continue
		}
		want[tagName] = struct{}{}
		if _, ok := have[tagName]; ok {
			continue
		}

		_, created, err := s.findOrCreateTag(ctx, repo.ID, tagName, 0, now)
		if err != nil {
			return nil, changes, log.WrapErr(err, "failed to create tag "+tagName)
		}
		if created {
			changes.Created = append(changes.Created, tagName)
		}
	}

	var stale []string
	for _, tag := range existing {
		if _, ok := want[tag.Name]; !ok {
			stale = append(stale, tag.Name)
		}
	}
	if len(stale) > 0 {
		if _, err := s.tags.DeleteTags(ctx, repo.ID, stale); err != nil {
			return nil, changes, log.WrapErr(err, "failed to delete stale tags")
		}
		changes.Deleted = stale
		if s.metrics != nil {
			s.metrics.TagsDeleted.Add(ctx, int64(len(stale)))
		}
	}

	if !changes.Empty() && !repoCreated {
		if err := s.repos.TouchRepository(ctx, repo.ID, now); err != nil {
			return nil, changes, log.WrapErr(err, "failed to touch repository")
		}
		repo.UpdatedAt = now
	}

	if !changes.Empty() || repoCreated {
		log.Info().
			Bool("created", repoCreated).
			Int("tags_created", len(changes.Created)).
			Int("tags_deleted", len(changes.Deleted)).
			Msg("repository reconciled")
	}

	return repo, changes, nil
}

func (s *Service) findOrCreateRepository(ctx context.Context, namespaceID int64, name string, now time.Time) (*domain.Repository, bool, error) {
	repo, created, err := FindOrCreate(ctx,
		func(ctx context.Context) (*domain.Repository, error) {
			return s.repos.RepositoryByNamespaceAndName(ctx, namespaceID, name)
		},
		func(ctx context.Context) (*domain.Repository, error) {
			repo := &domain.Repository{NamespaceID: namespaceID, Name: name, CreatedAt: now}
			if err := s.repos.CreateRepository(ctx, repo); err != nil {
				return nil, err
			}
			return repo, nil
		},
	)
	if created && s.metrics != nil {
		s.metrics.RepositoriesCreated.Add(ctx, 1)
	}
	return repo, created, err
}

func (s *Service) findOrCreateTag(ctx context.Context, repositoryID int64, name string, authorID int64, now time.Time) (*domain.Tag, bool, error) {
	tag, created, err := FindOrCreate(ctx,
		func(ctx context.Context) (*domain.Tag, error) {
			return s.tags.TagByRepositoryAndName(ctx, repositoryID, name)
		},
		func(ctx context.Context) (*domain.Tag, error) {
			tag := &domain.Tag{RepositoryID: repositoryID, Name: name, AuthorID: authorID, CreatedAt: now}
			if err := s.tags.CreateTag(ctx, tag); err != nil {
				return nil, err
			}
			return tag, nil
		},
	)
	if created && s.metrics != nil {
		s.metrics.TagsCreated.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("authored", authorID != 0),
		))
	}
	return tag, created, err
}

func validateDescriptor(desc domain.RepositoryDescriptor) error {
	if err := validation.ValidateRepositoryName(desc.Name); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidName, err)
	}
	for _, tag := range desc.Tags {
		if err := validation.ValidateTag(tag); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidName, desc.Name, err)
		}
	}
	return nil
}
