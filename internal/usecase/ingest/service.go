// Package ingest turns registry push notifications into catalogue updates.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/zerowrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/domain"
)

// NamespaceResolver maps a repository path onto its namespace and bare name.
type NamespaceResolver interface {
	Resolve(ctx context.Context, reg *domain.Registry, path string) (*domain.Namespace, string, error)
}

// PushReconciler makes a pushed repository and tag exist.
type PushReconciler interface {
	ReconcilePush(ctx context.Context, ns *domain.Namespace, name, tag string, author *domain.User) (*domain.Repository, *domain.Tag, error)
}

// ActivityRecorder records successful pushes.
type ActivityRecorder interface {
	RecordPush(ctx context.Context, owner *domain.User, repo *domain.Repository, tag *domain.Tag) error
}

// Service implements the IngestService interface.
type Service struct {
	validator  *OriginValidator
	resolver   NamespaceResolver
	reconciler PushReconciler
	recorder   ActivityRecorder
	metrics    *telemetry.Metrics
}

// NewService creates a new ingest service.
func NewService(
	validator *OriginValidator,
	resolver NamespaceResolver,
	reconciler PushReconciler,
	recorder ActivityRecorder,
) *Service {
	return &Service{
		validator:  validator,
		resolver:   resolver,
		reconciler: reconciler,
		recorder:   recorder,
	}
}

// SetMetrics sets the telemetry instruments. Must be called before the
// service handles traffic.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// ProcessPushEvent applies one manifest push to the catalogue and returns the
// affected repository. Dropped events come back as a wrapped
// domain.ErrMalformedEvent, ErrUnknownRegistry, ErrUnknownActor or
// ErrUnknownNamespace and leave every store untouched. Unknown namespaces
// are dropped without logging above debug.
func (s *Service) ProcessPushEvent(ctx context.Context, ev domain.NotificationEvent) (*domain.Repository, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ingest.ProcessPushEvent",
		trace.WithAttributes(attribute.String("event.id", ev.ID)))
	defer span.End()

	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ProcessPushEvent",
		zerowrap.FieldEvent:   ev.ID,
	})
	log := zerowrap.FromCtx(ctx)

	start := time.Now()
	if s.metrics != nil {
		s.metrics.EventsReceived.Add(ctx, 1)
		defer func() {
			s.metrics.IngestDuration.Record(ctx, time.Since(start).Seconds())
		}()
	}

	pe, err := ParsePushEvent(ev)
	if err != nil {
		var notFound *TagNotFoundError
		if errors.As(err, &notFound) {
			log.Error().Msg("Cannot find tag inside of event url: " + notFound.URL)
		} else {
			log.Error().Err(err).Msg("malformed push event")
		}
		return nil, s.reject(ctx, span, err)
	}

	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldHost: pe.SourceHost,
		"repository":       pe.RepositoryPath,
		"tag":              pe.TagName,
		"actor":            pe.ActorName,
	})
	log = zerowrap.FromCtx(ctx)

	reg, user, err := s.validator.Validate(ctx, pe)
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	ns, name, err := s.resolver.Resolve(ctx, reg, pe.RepositoryPath)
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	repo, tag, err := s.reconciler.ReconcilePush(ctx, ns, name, pe.TagName, user)
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	if err := s.recorder.RecordPush(ctx, user, repo, tag); err != nil && s.metrics != nil {
		s.metrics.ActivityFailure.Add(ctx, 1)
	}

	log.Info().Int64(zerowrap.FieldEntityID, repo.ID).Msg("push event processed")
	return repo, nil
}

// HandleNotification processes every manifest push in an envelope. Other
// events (pulls, deletes, blob pushes) are skipped. Processing continues
// past failed events; the summary reports how each one ended.
func (s *Service) HandleNotification(ctx context.Context, n domain.Notification) domain.IngestSummary {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "HandleNotification",
		zerowrap.FieldCount:   len(n.Events),
	})
	log := zerowrap.FromCtx(ctx)

	var summary domain.IngestSummary
	for i, ev := range n.Events {
		if ctx.Err() != nil {
			summary.Failed += len(n.Events) - i
			log.Warn().Err(ctx.Err()).Msg("notification processing interrupted")
			break
		}

		if !ev.IsManifestPush() {
			summary.Skipped++
			log.Debug().
				Str(zerowrap.FieldEvent, ev.ID).
				Str(zerowrap.FieldAction, ev.Action).
				Msg("skipping event")
			continue
		}

		_, err := s.ProcessPushEvent(ctx, ev)
		switch {
		case err == nil:
			summary.Processed++
		case domain.IsRejection(err):
			summary.Rejected++
		default:
			summary.Failed++
			log.Error().Err(err).Str(zerowrap.FieldEvent, ev.ID).Msg("failed to process push event")
		}
	}

	return summary
}

// reject records the outcome of a dropped or failed event and returns err.
func (s *Service) reject(ctx context.Context, span trace.Span, err error) error {
	reason := rejectionReason(err)
	if reason == "" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.metrics != nil {
			s.metrics.EventsFailed.Add(ctx, 1)
		}
		return err
	}

	span.SetAttributes(attribute.String("rejection", reason))
	if s.metrics != nil {
		s.metrics.EventsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedEvent):
		return "malformed"
	case errors.Is(err, domain.ErrUnknownRegistry):
		return "unknown_registry"
	case errors.Is(err, domain.ErrUnknownActor):
		return "unknown_actor"
	case errors.Is(err, domain.ErrUnknownNamespace):
		return "unknown_namespace"
	}
	return ""
}
