// Package control wires configuration into a running snapflow instance.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minhct/snapflow/internal/core/config"
	"github.com/minhct/snapflow/internal/flow/classify"
	"github.com/minhct/snapflow/internal/flow/runner"
	"github.com/minhct/snapflow/internal/health"
	"github.com/minhct/snapflow/internal/infra/cache"
	"github.com/minhct/snapflow/internal/infra/capture"
	"github.com/minhct/snapflow/internal/infra/storage"
	"github.com/minhct/snapflow/internal/infra/storage/memory"
	"github.com/minhct/snapflow/internal/infra/storage/postgres"
	"github.com/minhct/snapflow/internal/infra/stream"
)

// Config holds the application configuration.
type Config struct {
	Port     int
	Flow     config.FlowConfig
	Cache    cache.Config
	Database postgres.Config
}

// App is the main application struct that manages the flow lifecycle.
type App struct {
	cfg          Config
	runner       *runner.Runner
	healthServer *health.Server
	cacheStore   *cache.Store
	db           *postgres.DB
	grpcStream   *stream.GRPCTransport
	log          *slog.Logger
	scanCancel   context.CancelFunc
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}
	checks := make(map[string]health.Check)

	// 1. Attempt archive
	var archive storage.AttemptArchive
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		app.db = db
		archive = postgres.NewArchiveRepo(db)
		checks["database"] = db.Health
		slog.Info("Using PostgreSQL attempt archive")
	} else {
		archive = memory.NewArchiveRepo()
		slog.Info("Using memory attempt archive")
	}

	// 2. Artifact cache. Cache unavailability never blocks startup: the
	// adapter degrades to a logged no-op.
	var adapter *cache.Adapter
	if cfg.Cache.URL != "" {
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			slog.Warn("Failed to connect to artifact cache, caching disabled", "error", err)
			adapter = cache.NewAdapter(nil)
		} else {
			app.cacheStore = store
			adapter = cache.NewAdapter(store)
			checks["cache"] = store.Ping
		}
	} else {
		adapter = cache.NewAdapter(nil)
	}

	// 3. Collaborators
	if cfg.Flow.Capture.URL == "" {
		return nil, fmt.Errorf("flow.capture.url is required")
	}
	if cfg.Flow.Stream.URL == "" {
		return nil, fmt.Errorf("flow.stream.url is required")
	}

	captureProvider := capture.NewHTTPProvider(
		cfg.Flow.Capture.Name,
		cfg.Flow.Capture.URL,
		cfg.Flow.Capture.Timeout,
	)
	streamProvider := stream.NewHTTPProvider(
		cfg.Flow.Stream.Name,
		cfg.Flow.Stream.URL,
		cfg.Flow.Stream.Timeout,
	)

	// Deployments fronting the stream service with gRPC get a readiness
	// probe; classification of its status errors takes the typed path.
	if cfg.Flow.Stream.Transport == "grpc" {
		transport, err := stream.NewGRPCTransport(context.Background(), cfg.Flow.Stream.Name, cfg.Flow.Stream.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial stream service: %w", err)
		}
		app.grpcStream = transport
		checks["stream"] = transport.Ready
	}

	// 4. Runner
	r := runner.New(
		captureProvider,
		streamProvider,
		adapter,
		runner.WithClassifier(classify.NewSubstringClassifier(cfg.Flow.RetryableMarkers...)),
		runner.WithArchive(archive),
	)
	if err := r.SetPolicy(cfg.Flow.Retry); err != nil {
		return nil, err
	}
	r.SetOperationTimeout(cfg.Flow.OperationTimeout)
	app.runner = r

	// 5. Ops server
	app.healthServer = health.NewServer(r, cfg.Port, checks)

	return app, nil
}

// Runner exposes the flow runner for one-shot CLI invocations.
func (a *App) Runner() *runner.Runner {
	return a.runner
}

// Start starts the ops server and, when configured, the periodic scan loop.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Ops server failed", "error", err)
		}
	}()

	if a.cfg.Flow.ScanInterval > 0 {
		scanCtx, cancel := context.WithCancel(ctx)
		a.scanCancel = cancel
		go a.runScanLoop(scanCtx)
	}

	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping snapflow...")

	if a.scanCancel != nil {
		a.scanCancel()
	}
	if a.cacheStore != nil {
		if err := a.cacheStore.Close(); err != nil {
			a.log.Warn("Failed to close cache", "error", err)
		}
	}
	if a.grpcStream != nil {
		if err := a.grpcStream.Close(); err != nil {
			a.log.Warn("Failed to close stream transport", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.healthServer.Stop(ctx)
}

func (a *App) runScanLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Flow.ScanInterval)
	defer ticker.Stop()

	a.log.Info("Periodic flow runs enabled", "interval", a.cfg.Flow.ScanInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok := a.runner.Run(ctx); !ok {
				a.log.Warn("Scheduled flow run failed")
			}
		}
	}
}
