package in

import (
	"context"

	"github.com/bnema/dockyard/internal/domain"
)

// IngestService defines the contract for registry push ingestion.
type IngestService interface {
	// ProcessPushEvent applies a single manifest push.
	ProcessPushEvent(ctx context.Context, ev domain.NotificationEvent) (*domain.Repository, error)

	// HandleNotification applies every manifest push of an envelope.
	HandleNotification(ctx context.Context, n domain.Notification) domain.IngestSummary
}
