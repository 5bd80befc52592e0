package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures the scheduled pruning of the usage log.
type RetentionConfig struct {
	// Schedule is a cron expression. Empty disables retention.
	Schedule string

	// RetentionDays is how long records are kept. Default 30.
	RetentionDays int
}

// Retention prunes old usage records on a schedule.
type Retention struct {
	store  *Store
	cfg    RetentionConfig
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRetention creates the retention job for a store.
func NewRetention(store *Store, cfg RetentionConfig, logger *slog.Logger) *Retention {
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{
		store:  store,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("component", "usage.retention"),
	}
}

// Start begins scheduled pruning; a missing schedule is a no-op.
func (r *Retention) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.Schedule == "" {
		r.logger.Info("usage retention schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(r.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", r.cfg.Schedule, err)
	}
	if _, err := r.cron.AddFunc(r.cfg.Schedule, r.prune); err != nil {
		return fmt.Errorf("failed to schedule usage retention: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("usage retention started",
		"schedule", r.cfg.Schedule,
		"retention_days", r.cfg.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

func (r *Retention) prune() {
	cutoff := time.Now().AddDate(0, 0, -r.cfg.RetentionDays)
	deleted, err := r.store.Prune(cutoff)
	if err != nil {
		r.logger.Error("usage pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		r.logger.Info("usage records pruned", "deleted", deleted)
	}
}

// Stop stops the retention job, waiting for a running prune to finish.
func (r *Retention) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("usage retention stopped")
}
