package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/montage-ui/guideflow"
	"github.com/montage-ui/guideflow/internal/backend"
	"github.com/montage-ui/guideflow/internal/catalog"
	"github.com/montage-ui/guideflow/internal/config"
	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/internal/server"
	"github.com/montage-ui/guideflow/internal/store"
	"github.com/montage-ui/guideflow/pkg/log"
)

type guideflow struct {
	cfg        *config.Config
	orch       *flow.Orchestrator
	snapshots  *store.Snapshots
	archiver   *store.Archiver
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrLoadCatalog   = errors.New("failed to load flow catalog")
	ErrCreateArchive = errors.New("failed to open archive bucket")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &guideflow{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *guideflow) run() error {
	if err := s.initializeEngine(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *guideflow) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Guideflow starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.String("redis_addr", s.cfg.RedisAddr),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *guideflow) initializeEngine() error {
	s.orch = flow.New()

	defs, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	if err := s.orch.RegisterFlows(defs...); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	s.snapshots = store.NewSnapshots(
		s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB,
		s.cfg.RedisPrefix,
	)

	if s.cfg.ArchiveBucketURL != "" {
		archiver, err := store.NewArchiver(
			context.Background(), s.cfg.ArchiveBucketURL,
			s.cfg.ArchivePrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCreateArchive, err)
		}
		s.archiver = archiver
	}
	return nil
}

func (s *guideflow) startServer() {
	s.apiServer = server.NewServer(s.orch, server.Options{
		Snapshots: s.snapshots,
		Archiver:  s.archiver,
	})
	s.apiServer.AttachBackend(backend.New(
		s.orch, s.cfg.BackendDelay, s.apiServer.Dispatch,
	))

	mux := s.apiServer.SetupRoutes()
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *guideflow) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if s.snapshots != nil {
		_ = s.snapshots.Close()
	}
	if s.archiver != nil {
		_ = s.archiver.Close()
	}

	slog.Info("Guideflow stopped")
}
