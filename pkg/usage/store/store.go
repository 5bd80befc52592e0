package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Record is one usage log row.
type Record struct {
	RequestID        string
	Credential       string
	Model            string
	Endpoint         string
	Status           int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMS        int64
	Created          time.Time
}

// Config configures the usage store.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// QueueSize is the async write buffer. Default 1000.
	QueueSize int

	// BatchSize flushes the batch once this many records are queued.
	// Default 64.
	BatchSize int

	// FlushInterval flushes a partial batch after this long. Default 1s.
	FlushInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 1000
	}
	if c.BatchSize == 0 {
		c.BatchSize = 64
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = time.Second
	}
}

// Store is the asynchronous usage log.
type Store struct {
	db     *sql.DB
	cfg    Config
	queue  chan Record
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// Open opens the usage database and starts the write worker.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("usage store path cannot be empty")
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_log (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id        TEXT NOT NULL,
		credential        TEXT NOT NULL,
		model             TEXT NOT NULL,
		endpoint          TEXT NOT NULL,
		status            INTEGER NOT NULL,
		prompt_tokens     INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens      INTEGER NOT NULL,
		latency_ms        INTEGER NOT NULL,
		created_at        INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_log(created_at);
	CREATE INDEX IF NOT EXISTS idx_usage_credential ON usage_log(credential);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize usage schema: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		queue:  make(chan Record, cfg.QueueSize),
		done:   make(chan struct{}),
		logger: logger.With("component", "usage.store"),
	}

	s.wg.Add(1)
	go s.worker()

	s.logger.Info("usage store opened",
		"path", cfg.Path,
		"queue_size", cfg.QueueSize,
		"batch_size", cfg.BatchSize,
	)
	return s, nil
}

// Record enqueues a usage record. It never blocks; when the queue is
// full the record is dropped with a warning.
func (s *Store) Record(record Record) {
	if record.Created.IsZero() {
		record.Created = time.Now()
	}

	select {
	case s.queue <- record:
	default:
		s.logger.Warn("usage queue full, dropping record",
			"request_id", record.RequestID,
			"credential", record.Credential,
		)
	}
}

func (s *Store) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, s.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.writeBatch(batch); err != nil {
			s.logger.Error("failed to write usage batch",
				"error", err,
				"records", len(batch),
			)
		}
		batch = batch[:0]
	}

	for {
		select {
		case record := <-s.queue:
			batch = append(batch, record)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-s.done:
			// Drain whatever is still queued, then flush.
			for {
				select {
				case record := <-s.queue:
					batch = append(batch, record)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *Store) writeBatch(batch []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO usage_log (
			request_id, credential, model, endpoint, status,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.Exec(
			r.RequestID, r.Credential, r.Model, r.Endpoint, r.Status,
			r.PromptTokens, r.CompletionTokens, r.TotalTokens,
			r.LatencyMS, r.Created.Unix(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records, for tests and diagnostics.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM usage_log`).Scan(&n)
	return n, err
}

// Prune deletes records older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM usage_log WHERE created_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage log: %w", err)
	}
	return res.RowsAffected()
}

// Close flushes the queue and closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return s.db.Close()
}
