package routing

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBanStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.db")

	store, err := OpenBanStore(path)
	if err != nil {
		t.Fatalf("OpenBanStore: %v", err)
	}

	until := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	states := []BanState{
		{Credential: "cred-1", Model: "gpt-4o", Code: "401", Failures: 1, BannedUntil: until},
		{Credential: "cred-2", Model: "claude-opus-4-1", Code: "403", Failures: 1, Permanent: true},
	}
	if err := store.Save(states); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and read back, as on restart.
	store, err = OpenBanStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %d entries", len(loaded))
	}

	byCred := make(map[string]BanState)
	for _, s := range loaded {
		byCred[s.Credential] = s
	}
	if got := byCred["cred-1"]; !got.BannedUntil.Equal(until) || got.Code != "401" {
		t.Errorf("cred-1 = %+v", got)
	}
	if got := byCred["cred-2"]; !got.Permanent {
		t.Errorf("cred-2 = %+v, want permanent", got)
	}
}

func TestBanStoreSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.db")
	store, err := OpenBanStore(path)
	if err != nil {
		t.Fatalf("OpenBanStore: %v", err)
	}
	defer store.Close()

	if err := store.Save([]BanState{{Credential: "old", Model: "m", Code: "401"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(nil); err != nil {
		t.Fatalf("Save empty: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want empty after replacing snapshot", loaded)
	}
}

func TestOpenBanStoreEmptyPath(t *testing.T) {
	if _, err := OpenBanStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}
