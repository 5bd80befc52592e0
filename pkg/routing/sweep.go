package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the ban sweep once a minute.
const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically lifts expired bans and, when a store is
// configured, persists the remaining ban state. Lazy expiry on the read
// path keeps the router correct regardless; the sweep keeps metrics and
// the persisted snapshot fresh.
type Sweeper struct {
	registry *Registry
	store    *BanStore
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper. The store may be nil; schedule defaults
// to DefaultSweepSchedule.
func NewSweeper(registry *Registry, store *BanStore, schedule string, logger *slog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		registry: registry,
		store:    store,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With("component", "routing.sweeper"),
	}
}

// Start begins the scheduled sweep and stops it when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule ban sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("ban sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Sweeper) sweep() {
	if lifted := s.registry.Sweep(); lifted > 0 {
		s.logger.Info("expired bans lifted", "count", lifted)
	}

	if s.store == nil {
		return
	}
	if err := s.store.Save(s.registry.Snapshot()); err != nil {
		s.logger.Error("failed to persist ban state", "error", err)
	}
}

// Stop stops the sweeper and waits for a running sweep to finish. The
// final snapshot is persisted on the way out.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false

	if s.store != nil {
		if err := s.store.Save(s.registry.Snapshot()); err != nil {
			s.logger.Error("failed to persist ban state", "error", err)
		}
	}
	s.logger.Info("ban sweeper stopped")
}
