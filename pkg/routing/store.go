package routing

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// BanStore persists ban state to SQLite so bans, permanent ones in
// particular, survive process restarts. Writes happen from the sweep and
// on shutdown; the store is not on the request path.
type BanStore struct {
	db *sql.DB
}

// OpenBanStore opens (and if needed creates) the ban database.
func OpenBanStore(path string) (*BanStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ban store path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ban store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS bans (
		credential   TEXT NOT NULL,
		model        TEXT NOT NULL,
		code         TEXT NOT NULL,
		failures     INTEGER NOT NULL,
		banned_until INTEGER NOT NULL,
		permanent    INTEGER NOT NULL,
		PRIMARY KEY (credential, model)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ban store schema: %w", err)
	}

	return &BanStore{db: db}, nil
}

// Save replaces the persisted state with the given snapshot.
func (s *BanStore) Save(states []BanState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bans`); err != nil {
		return fmt.Errorf("failed to clear ban store: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO bans (credential, model, code, failures, banned_until, permanent)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, state := range states {
		permanent := 0
		if state.Permanent {
			permanent = 1
		}
		if _, err := stmt.Exec(
			state.Credential,
			state.Model,
			state.Code,
			state.Failures,
			state.BannedUntil.Unix(),
			permanent,
		); err != nil {
			return fmt.Errorf("failed to save ban state: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the persisted ban state.
func (s *BanStore) Load() ([]BanState, error) {
	rows, err := s.db.Query(`
		SELECT credential, model, code, failures, banned_until, permanent
		FROM bans`)
	if err != nil {
		return nil, fmt.Errorf("failed to read ban store: %w", err)
	}
	defer rows.Close()

	var out []BanState
	for rows.Next() {
		var state BanState
		var until int64
		var permanent int
		if err := rows.Scan(
			&state.Credential,
			&state.Model,
			&state.Code,
			&state.Failures,
			&until,
			&permanent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ban state: %w", err)
		}
		state.BannedUntil = time.Unix(until, 0)
		state.Permanent = permanent == 1
		out = append(out, state)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *BanStore) Close() error {
	return s.db.Close()
}
