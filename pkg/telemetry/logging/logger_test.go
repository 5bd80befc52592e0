package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewInvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0]["msg"] != "should be kept" {
		t.Errorf("msg = %v", lines[0]["msg"])
	}
}

func TestContextFieldsInjected(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithCredential(ctx, "openai-main")
	ctx = WithModel(ctx, "gpt-4o")
	logger.InfoContext(ctx, "upstream request")

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	entry := lines[0]
	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["credential"] != "openai-main" {
		t.Errorf("credential = %v", entry["credential"])
	}
	if entry["model"] != "gpt-4o" {
		t.Errorf("model = %v", entry["model"])
	}
}

func TestSecretsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactSecrets: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("auth failed",
		"api_key", "sk-abcdef1234567890",
		"header", "Bearer eyJhbGciOiJIUzI1NiJ9.payload",
	)

	lines := logLines(t, &buf)
	entry := lines[0]
	if got := entry["api_key"]; got != "sk-a***" {
		t.Errorf("api_key = %v, want masked", got)
	}
	if got := entry["header"]; got != "Bearer ***" {
		t.Errorf("header = %v, want masked", got)
	}
}

func TestRedactionCoversBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactSecrets: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.With("token", "super-secret-value").Info("request")

	lines := logLines(t, &buf)
	if got := lines[0]["token"]; got != "supe***" {
		t.Errorf("token = %v, want masked", got)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("text output missing key=value: %q", buf.String())
	}
}
