package providers

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"auto-ai/router/pkg/gateway/types"
)

// Type identifies the upstream API family a credential talks to.
type Type string

const (
	// TypeOpenAI is OpenAI and any OpenAI-compatible endpoint.
	TypeOpenAI Type = "openai"

	// TypeAnthropic is the Anthropic Messages API.
	TypeAnthropic Type = "anthropic"

	// TypeVertex is Google Vertex AI with service-account authentication.
	TypeVertex Type = "vertex"

	// TypeGemini is the Google Gemini API with API-key authentication.
	// Payload shapes are shared with vertex; only endpoint and auth differ.
	TypeGemini Type = "gemini"
)

// Valid reports whether t is a known provider type.
func (t Type) Valid() bool {
	switch t {
	case TypeOpenAI, TypeAnthropic, TypeVertex, TypeGemini:
		return true
	}
	return false
}

// TokenSource supplies a bearer token for providers that authenticate with
// short-lived OAuth2 tokens instead of static API keys (Vertex AI).
type TokenSource interface {
	// Token returns a currently valid bearer token.
	Token(ctx context.Context) (string, error)
}

// Config contains the settings for a single provider credential.
type Config struct {
	// Name is the unique credential name from configuration.
	Name string

	// Type selects the adapter implementation.
	Type Type

	// APIKey is the static API key (openai, anthropic, gemini).
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// ProjectID is the GCP project (vertex only).
	ProjectID string

	// Location is the GCP region, or "global" (vertex only).
	Location string

	// Tokens supplies OAuth2 bearer tokens (vertex only).
	Tokens TokenSource

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// MaxIdleConns caps the connection pool size.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps per-host idle connections.
	MaxIdleConnsPerHost int

	// IdleConnTimeout closes idle connections after this duration.
	IdleConnTimeout time.Duration
}

// StreamChunk is one item of a streaming completion. Exactly one of Chunk
// and Error is set; a chunk with Error set is terminal.
type StreamChunk struct {
	// Chunk is an OpenAI-format chat.completion.chunk.
	Chunk *types.ChatCompletionStreamChunk

	// Error reports a mid-stream failure.
	Error error
}

// NewCompletionID generates an OpenAI-style completion identifier.
func NewCompletionID() string {
	return "chatcmpl-" + compactID()
}

// NewToolCallID synthesizes a tool-call identifier for providers whose
// native protocol has none (Vertex function calls).
func NewToolCallID() string {
	return "call_" + compactID()
}

// compactID returns 20 hex characters derived from a random UUID,
// matching the length OpenAI uses in its identifiers.
func compactID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:20]
}
