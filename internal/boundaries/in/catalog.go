package in

import (
	"context"

	"github.com/bnema/dockyard/internal/domain"
)

// CatalogService defines the contract for catalogue synchronization.
type CatalogService interface {
	// SyncAll reconciles every configured registry with its catalogue.
	SyncAll(ctx context.Context) ([]domain.SyncReport, error)

	// SyncRegistry reconciles one registry with its catalogue.
	SyncRegistry(ctx context.Context, hostname string) (*domain.SyncReport, error)
}
