package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/elimvote/internal/adapters/http/api"
	"github.com/okian/elimvote/internal/adapters/http/swagger"
	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/adapters/repository"
	service "github.com/okian/elimvote/internal/app"
	"github.com/okian/elimvote/internal/config"
	"github.com/okian/elimvote/pkg/logger"
	"github.com/okian/elimvote/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional yaml -> dotenv -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return errors.New("failed to load config: " + err.Error())
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return errors.New("failed to initialize logging: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closeStore, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Start(ctx); err != nil {
		return errors.New("failed to start service: " + err.Error())
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// build wires storage, repository and markers into an unstarted service.
func build(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	kv, err := kvstore.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, nil, errors.New("failed to open store: " + err.Error())
	}
	closeStore := func() {
		if err := kv.Close(); err != nil {
			logger.Get().Warn(context.Background(), "store close", logger.Error(err))
		}
	}

	repo := repository.New(kv,
		repository.WithRounds(cfg.Sequence()),
		repository.WithRoster(cfg.Roster),
		repository.WithDocumentKey(cfg.DocumentKey),
	)
	markers := repository.NewMarkers(kv, cfg.Sequence())

	svc := service.New(repo, markers,
		service.WithQueueSize(cfg.QueueSize),
		service.WithConfirmLedgerSize(cfg.ConfirmLedgerSize),
		service.WithBallotSize(cfg.BallotSize),
		service.WithLeaderboardSize(cfg.LeaderboardSize),
		service.WithAdminSecret(cfg.AdminSecret),
	)
	return svc, closeStore, nil
}

// newMux registers the API and the docs.
func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithSecureCookies(cfg.CookieSecure)).Register(ctx, mux)
	swagger.Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
