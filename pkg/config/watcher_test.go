package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := writeConfig(t, validYAML)

	watcher, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.Stop()

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		watcher.Watch(ctx, func(cfg *Config) error {
			select {
			case reloaded <- cfg:
			default:
			}
			return nil
		})
	}()

	// Give the watch loop time to register before writing.
	time.Sleep(100 * time.Millisecond)

	updated := validYAML + "\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Logging.Level != "debug" {
			t.Errorf("level = %q, want debug", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered")
	}
}

func TestWatcherRejectsInvalidReload(t *testing.T) {
	path := writeConfig(t, validYAML)

	watcher, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.Stop()

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		watcher.Watch(ctx, func(cfg *Config) error {
			reloaded <- cfg
			return nil
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// Broken yaml must not reach the callback.
	if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloaded:
		t.Fatal("invalid config must not trigger reload")
	case <-time.After(time.Second):
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		d.trigger(func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	select {
	case <-fired:
		t.Error("burst must coalesce into one callback")
	case <-time.After(150 * time.Millisecond):
	}
}
