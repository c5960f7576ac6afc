package cli

import (
	"context"
	"fmt"
	"time"

	"property-listing/internal/cleanup"
	"property-listing/internal/config"
	"property-listing/internal/database"
	"property-listing/internal/handlers"
	"property-listing/internal/logging"
	"property-listing/internal/ratelimit"
	"property-listing/internal/scheduler"
	"property-listing/internal/search"
	"property-listing/internal/upload"
)

// app holds the services shared by the commands
type app struct {
	cfg         *config.Config
	store       database.PropertyStore
	storage     upload.Storage
	uploader    *upload.Uploader
	indexer     search.Indexer
	cleanup     *cleanup.Service
	scheduler   *scheduler.Scheduler
	rateLimiter *ratelimit.RateLimiter
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := database.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	storage, err := openStorage(ctx, cfg.Uploads)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		storage: storage,
		uploader: upload.New(storage, upload.Options{
			Field:        cfg.Uploads.Field,
			MaxFileBytes: cfg.Uploads.MaxFileBytes,
			AllowedTypes: cfg.Uploads.AllowedTypes,
			SniffContent: cfg.Uploads.SniffContent,
		}),
		indexer: newIndexer(cfg.Search.Meilisearch),
		cleanup: cleanup.NewService(store, storage),
		rateLimiter: ratelimit.NewRateLimiter(
			cfg.RateLimit.RequestsPerMinute,
			cfg.RateLimit.RequestsPerHour,
			cfg.RateLimit.RequestsPerDay,
			cfg.RateLimit.Enabled,
		),
	}
	a.scheduler = scheduler.NewScheduler(a.cleanup, cfg.Cleanup)

	logging.Logger.Infof("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.RequestsPerHour,
		cfg.RateLimit.RequestsPerDay,
		cfg.RateLimit.Enabled,
	)
	return a, nil
}

func openStorage(ctx context.Context, cfg config.UploadsConfig) (upload.Storage, error) {
	switch cfg.Backend {
	case "", "local":
		logging.Logger.Infof("Storing uploads in %s", cfg.Dir)
		return upload.NewLocalStorage(cfg.Dir), nil
	case "minio":
		logging.Logger.Infof("Storing uploads in bucket %s at %s", cfg.MinIO.Bucket, cfg.MinIO.Endpoint)
		return upload.NewMinIOStorage(ctx, cfg.MinIO)
	}
	return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
}

// newIndexer returns a Meilisearch client, or Noop when no host is set
func newIndexer(cfg config.MeilisearchConfig) search.Indexer {
	if cfg.Host == "" {
		logging.Logger.Info("Search disabled: no Meilisearch host configured")
		return search.Noop{}
	}

	client := search.NewSearchClient(cfg.Host, cfg.APIKey, cfg.Index)
	if err := client.InitIndex(); err != nil {
		logging.Logger.WithError(err).Warn("Failed to initialize search index")
	}
	return search.NewGuarded(client, search.NewCircuitBreaker(3, 30*time.Second))
}

func (a *app) dependencies() handlers.Dependencies {
	return handlers.Dependencies{
		Store:        a.store,
		Uploader:     a.uploader,
		Indexer:      a.indexer,
		Cleanup:      a.cleanup,
		Scheduler:    a.scheduler,
		RateLimiter:  a.rateLimiter,
		AllowOrigins: a.cfg.Server.AllowOrigins,
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.Logger.WithError(err).Warn("Failed to close property store")
	}
}
