package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/adapters/out/catalog"
	"github.com/bnema/dockyard/internal/adapters/out/sqlite"
	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/boundaries/in"
	"github.com/bnema/dockyard/internal/usecase/activity"
	"github.com/bnema/dockyard/internal/usecase/admin"
	catalogusecase "github.com/bnema/dockyard/internal/usecase/catalog"
	"github.com/bnema/dockyard/internal/usecase/ingest"
	"github.com/bnema/dockyard/internal/usecase/namespace"
	"github.com/bnema/dockyard/internal/usecase/reconcile"
)

// Kernel holds the wired use cases. It does not start listeners or
// register signal handlers, so CLI commands use it directly.
type Kernel struct {
	cfg        Config
	log        zerowrap.Logger
	store      *sqlite.Store
	adminSvc   *admin.Service
	ingestSvc  *ingest.Service
	catalogSvc *catalogusecase.Service
	metrics    *telemetry.Metrics
	cleanup    func()
}

// NewKernel loads the configuration, opens the database and wires every
// use case.
func NewKernel(ctx context.Context, configPath string) (*Kernel, error) {
	cfg, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, cleanup, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}

	k, err := newKernel(zerowrap.WithCtx(ctx, log), cfg, log)
	if err != nil {
		cleanup()
		return nil, err
	}
	k.cleanup = cleanup
	return k, nil
}

func newKernel(ctx context.Context, cfg Config, log zerowrap.Logger) (*Kernel, error) {
	store, err := sqlite.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return nil, log.WrapErr(err, "failed to open database")
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		_ = store.Close()
		return nil, log.WrapErr(err, "failed to create metrics")
	}

	resolver := namespace.NewResolver(store)

	reconciler := reconcile.NewService(resolver, store, store)
	reconciler.SetMetrics(metrics)

	ingestSvc := ingest.NewService(
		ingest.NewOriginValidator(store, store),
		resolver,
		reconciler,
		activity.NewRecorder(store),
	)
	ingestSvc.SetMetrics(metrics)

	creds := make(map[string]catalog.Credentials, len(cfg.Registries))
	for _, c := range cfg.Registries {
		creds[c.Hostname] = catalog.Credentials{
			Username: c.Username,
			Password: c.Password,
			Token:    c.Token,
			Insecure: c.Insecure,
		}
	}

	catalogSvc := catalogusecase.NewService(
		catalog.NewSource(creds, log),
		store, store, store,
		reconciler,
		catalogusecase.Config{Prune: cfg.Sync.Prune, Hosts: cfg.Sync.Registries},
	)
	catalogSvc.SetMetrics(metrics)

	adminSvc := admin.NewService(admin.Stores{
		Registries:   store,
		Namespaces:   store,
		Repositories: store,
		Tags:         store,
		Users:        store,
		Activities:   store,
		Stars:        store,
	})

	return &Kernel{
		cfg:        cfg,
		log:        log,
		store:      store,
		adminSvc:   adminSvc,
		ingestSvc:  ingestSvc,
		catalogSvc: catalogSvc,
		metrics:    metrics,
		cleanup:    func() {},
	}, nil
}

// Context returns ctx carrying the kernel logger.
func (k *Kernel) Context(ctx context.Context) context.Context {
	return zerowrap.WithCtx(ctx, k.log)
}

// Admin returns the provisioning service.
func (k *Kernel) Admin() in.AdminService {
	return k.adminSvc
}

// Ingest returns the push ingestion service.
func (k *Kernel) Ingest() in.IngestService {
	return k.ingestSvc
}

// Catalog returns the catalogue sync service.
func (k *Kernel) Catalog() in.CatalogService {
	return k.catalogSvc
}

// Close releases the database and flushes the log file.
func (k *Kernel) Close() error {
	var errs []error
	if err := k.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	if k.cleanup != nil {
		k.cleanup()
	}
	return errors.Join(errs...)
}
