// Package catalog reconciles the stored catalogue against what each registry
// reports through its listing API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/zerowrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
)

// BulkReconciler applies a full tag listing to one repository.
type BulkReconciler interface {
	Reconcile(ctx context.Context, reg *domain.Registry, desc domain.RepositoryDescriptor) (*domain.Repository, domain.TagChanges, error)
}

// Config controls a synchronization run.
type Config struct {
	// Prune deletes stored repositories the registry no longer lists.
	Prune bool

	// Hosts restricts SyncAll to these registry hostnames. Empty means every
	// registry.
	Hosts []string
}

// Service implements the CatalogService interface.
type Service struct {
	source     out.CatalogSource
	registries out.RegistryStore
	namespaces out.NamespaceStore
	repos      out.RepositoryStore
	reconciler BulkReconciler
	config     Config
	metrics    *telemetry.Metrics
}

// NewService creates a catalogue sync service.
func NewService(
	source out.CatalogSource,
	registries out.RegistryStore,
	namespaces out.NamespaceStore,
	repos out.RepositoryStore,
	reconciler BulkReconciler,
	config Config,
) *Service {
	return &Service{
		source:     source,
		registries: registries,
		namespaces: namespaces,
		repos:      repos,
		reconciler: reconciler,
		config:     config,
	}
}

// SetMetrics sets the telemetry instruments. Must be called before the
// service runs.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// SyncAll synchronizes every selected registry. A registry that fails does
// not stop the others; the first failure is returned alongside the reports.
func (s *Service) SyncAll(ctx context.Context) ([]domain.SyncReport, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "SyncAll",
	})
	log := zerowrap.FromCtx(ctx)

	registries, err := s.registries.ListRegistries(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list registries")
	}

	var reports []domain.SyncReport
	var firstErr error
	for i := range registries {
		reg := &registries[i]
		if !s.selected(reg.Hostname) {
			continue
		}
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}

		report, err := s.syncRegistry(ctx, reg)
		if err != nil {
			log.Warn().Err(err).Str(zerowrap.FieldHost, reg.Hostname).Msg("registry sync failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reports = append(reports, *report)
	}

	log.Info().Int(zerowrap.FieldCount, len(reports)).Msg("catalogue sync finished")
	return reports, firstErr
}

// SyncRegistry synchronizes the registry known under hostname.
func (s *Service) SyncRegistry(ctx context.Context, hostname string) (*domain.SyncReport, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "SyncRegistry",
		zerowrap.FieldHost:    hostname,
	})
	log := zerowrap.FromCtx(ctx)

	reg, err := s.registries.RegistryByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRegistry, hostname)
		}
		return nil, log.WrapErr(err, "failed to find registry")
	}

	return s.syncRegistry(ctx, reg)
}

func (s *Service) syncRegistry(ctx context.Context, reg *domain.Registry) (report *domain.SyncReport, err error) {
	ctx = zerowrap.CtxWithField(ctx, zerowrap.FieldHost, reg.Hostname)
	log := zerowrap.FromCtx(ctx)

	start := time.Now()
	if s.metrics != nil {
		defer func() {
			result := "ok"
			if err != nil {
				result = "error"
			}
			attrs := metric.WithAttributes(
				attribute.String("registry", reg.Hostname),
				attribute.String("status", result),
			)
			s.metrics.SyncRuns.Add(ctx, 1, attrs)
			s.metrics.SyncDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		}()
	}

	names, err := s.source.Repositories(ctx, reg.Hostname)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list catalogue")
	}

	report = &domain.SyncReport{Registry: reg.Hostname}
	listed := make(map[string]struct{}, len(names))
	complete := true

	for _, name := range names {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		listed[name] = struct{}{}

		tags, err := s.source.Tags(ctx, reg.Hostname, name)
		if err != nil {
			log.Warn().Err(err).Str("repository", name).Msg("failed to list tags, skipping repository")
			report.Skipped++
			complete = false
			continue
		}

		_, changes, err := s.reconciler.Reconcile(ctx, reg, domain.RepositoryDescriptor{Name: name, Tags: tags})
		switch {
		case errors.Is(err, domain.ErrUnknownNamespace):
			log.Debug().Str("repository", name).Msg("namespace not provisioned, skipping repository")
			report.Skipped++
			continue
		case errors.Is(err, domain.ErrInvalidName):
			log.Warn().Err(err).Str("repository", name).Msg("invalid repository listing, skipping")
			report.Skipped++
			continue
		case err != nil:
			return nil, log.WrapErr(err, "failed to reconcile "+name)
		}

		report.Repositories++
		report.TagsCreated += len(changes.Created)
		report.TagsDeleted += len(changes.Deleted)
	}

	if s.config.Prune {
		if !complete {
			log.Warn().Msg("catalogue listing incomplete, not pruning")
		} else {
			pruned, err := s.prune(ctx, reg, listed)
			if err != nil {
				return nil, err
			}
			report.RepositoriesPruned = pruned
		}
	}

	log.Info().
		Int("repositories", report.Repositories).
		Int("skipped", report.Skipped).
		Int("tags_created", report.TagsCreated).
		Int("tags_deleted", report.TagsDeleted).
		Int("pruned", report.RepositoriesPruned).
		Msg("registry synchronized")

	return report, nil
}

// prune deletes the registry's repositories whose full name is not in listed.
func (s *Service) prune(ctx context.Context, reg *domain.Registry, listed map[string]struct{}) (int, error) {
	log := zerowrap.FromCtx(ctx)

	namespaces, err := s.namespaces.NamespacesOf(ctx, reg.ID)
	if err != nil {
		return 0, log.WrapErr(err, "failed to list namespaces")
	}

	pruned := 0
	for _, ns := range namespaces {
		repos, err := s.repos.RepositoriesOf(ctx, ns.ID)
		if err != nil {
			return pruned, log.WrapErr(err, "failed to list repositories")
		}
		for _, repo := range repos {
			full := domain.RepositoryView{Namespace: ns, Repository: repo}.FullName()
			if _, ok := listed[full]; ok {
				continue
			}
			if err := s.repos.DeleteRepository(ctx, repo.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return pruned, log.WrapErr(err, "failed to prune "+full)
			}
			log.Info().Str("repository", full).Msg("repository pruned")
			pruned++
		}
	}
	return pruned, nil
}

func (s *Service) selected(hostname string) bool {
	if len(s.config.Hosts) == 0 {
		return true
	}
	for _, h := range s.config.Hosts {
		if strings.EqualFold(h, hostname) {
			return true
		}
	}
	return false
}
