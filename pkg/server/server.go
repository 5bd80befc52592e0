package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"auto-ai/router/pkg/config"
	"auto-ai/router/pkg/proxy"
	"auto-ai/router/pkg/proxy/middleware"
	"auto-ai/router/pkg/routing"
	"auto-ai/router/pkg/telemetry/health"
	"auto-ai/router/pkg/telemetry/metrics"
	usagestore "auto-ai/router/pkg/usage/store"
)

// Options tunes server construction beyond the config file.
type Options struct {
	// ConfigPath enables hot reload of the config file when set.
	ConfigPath string

	// Logger is the process logger.
	Logger *slog.Logger
}

// Server is the assembled gateway process.
type Server struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	router     *routing.Router
	dispatcher *proxy.Dispatcher
	collector  *metrics.Collector
	checker    *health.Checker

	banStore   *routing.BanStore
	sweeper    *routing.Sweeper
	usageStore *usagestore.Store
	retention  *usagestore.Retention
	watcher    *config.Watcher

	httpServer *http.Server

	mu           sync.Mutex
	creds        []*routing.Credential
	running      bool
	shutdownOnce sync.Once
}

// New builds the gateway from a validated configuration.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	collector := metrics.NewCollector(metrics.Config{
		Enabled: cfg.Metrics.IsEnabled(),
	}, nil)

	var banStore *routing.BanStore
	if cfg.Fail2Ban.StorePath != "" {
		store, err := routing.OpenBanStore(cfg.Fail2Ban.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ban store: %w", err)
		}
		banStore = store
	}

	registry := routing.NewRegistry(buildBanRules(cfg.Fail2Ban.Rules), collector, logger)
	if banStore != nil {
		states, err := banStore.Load()
		if err != nil {
			logger.Warn("failed to restore ban state, starting clean", "error", err)
		} else if len(states) > 0 {
			registry.Restore(states)
			logger.Info("ban state restored", "entries", len(states))
		}
	}

	creds, err := buildCredentials(ctx, cfg.Credentials, logger)
	if err != nil {
		if banStore != nil {
			banStore.Close()
		}
		return nil, err
	}

	router := routing.NewRouter(creds, buildCatalog(cfg.Models), registry, routing.NewLimiter(), logger)

	var usageStore *usagestore.Store
	var retention *usagestore.Retention
	if cfg.Usage.IsEnabled() {
		usageStore, err = usagestore.Open(usagestore.Config{
			Path:      cfg.Usage.Path,
			QueueSize: cfg.Usage.QueueSize,
			BatchSize: cfg.Usage.BatchSize,
		}, logger)
		if err != nil {
			closeCredentials(creds, logger)
			if banStore != nil {
				banStore.Close()
			}
			return nil, fmt.Errorf("failed to open usage store: %w", err)
		}
		retention = usagestore.NewRetention(usageStore, usagestore.RetentionConfig{
			Schedule:      cfg.Usage.RetentionSchedule,
			RetentionDays: cfg.Usage.RetentionDays,
		}, logger)
	}

	dispatcher := proxy.NewDispatcher(proxy.DispatcherConfig{
		Router:       router,
		Usage:        usageStore,
		Metrics:      collector,
		Logger:       logger,
		MaxBodyBytes: int64(cfg.Server.MaxBodySizeMB) << 20,
	})

	return &Server{
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		router:     router,
		dispatcher: dispatcher,
		collector:  collector,
		checker:    health.New(router.Stats),
		banStore:   banStore,
		sweeper:    routing.NewSweeper(registry, banStore, cfg.Fail2Ban.SweepSchedule, logger),
		usageStore: usageStore,
		retention:  retention,
		creds:      creds,
	}, nil
}

// Start runs the gateway and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.sweeper.Start(ctx); err != nil {
		return err
	}
	if s.retention != nil {
		if err := s.retention.Start(ctx); err != nil {
			return err
		}
	}
	if err := s.startWatcher(ctx); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			"address", s.cfg.Server.Listen,
			"credentials", len(s.cfg.Credentials),
			"models", len(s.cfg.Models),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	}
}

func (s *Server) startWatcher(ctx context.Context) error {
	if s.opts.ConfigPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(s.opts.ConfigPath, s.logger)
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	s.watcher = watcher

	go func() {
		if err := watcher.Watch(ctx, s.Reload); err != nil {
			s.logger.Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}

// Reload applies a freshly validated configuration to the running
// gateway. The credential pool, model catalog and ban rules take effect
// immediately; listener settings and the master key require a restart.
func (s *Server) Reload(cfg *config.Config) error {
	creds, err := buildCredentials(context.Background(), cfg.Credentials, s.logger)
	if err != nil {
		return fmt.Errorf("reload aborted: %w", err)
	}

	s.router.Swap(creds, buildCatalog(cfg.Models))

	s.mu.Lock()
	old := s.creds
	s.creds = creds
	s.mu.Unlock()
	closeCredentials(old, s.logger)

	if cfg.Server.Listen != s.cfg.Server.Listen || cfg.Server.MasterKey != s.cfg.Server.MasterKey {
		s.logger.Warn("listen address and master key changes require a restart")
	}

	s.logger.Info("configuration reloaded",
		"credentials", len(cfg.Credentials),
		"models", len(cfg.Models),
	)
	return nil
}

// Shutdown drains the listener and stops the background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error draining server", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if s.watcher != nil {
			s.watcher.Stop()
		}
		s.sweeper.Stop()
		if s.retention != nil {
			s.retention.Stop()
		}
		if s.usageStore != nil {
			if err := s.usageStore.Close(); err != nil {
				s.logger.Error("error closing usage store", "error", err)
			}
		}
		if s.banStore != nil {
			if err := s.banStore.Close(); err != nil {
				s.logger.Error("error closing ban store", "error", err)
			}
		}

		s.mu.Lock()
		creds := s.creds
		s.creds = nil
		s.running = false
		s.mu.Unlock()
		closeCredentials(creds, s.logger)

		s.logger.Info("gateway stopped")
	})

	return shutdownErr
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Auth(s.cfg.Server.MasterKey)
	mux.Handle("POST /v1/chat/completions", authed(http.HandlerFunc(s.dispatcher.HandleChatCompletions)))
	mux.Handle("POST /v1/embeddings", authed(http.HandlerFunc(s.dispatcher.HandleEmbeddings)))
	mux.Handle("POST /v1/images/generations", authed(http.HandlerFunc(s.dispatcher.HandleImageGenerations)))
	mux.Handle("GET /v1/models", authed(http.HandlerFunc(s.dispatcher.HandleListModels)))

	mux.Handle("GET /health", s.checker.Handler())
	if s.cfg.Metrics.IsEnabled() {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}
