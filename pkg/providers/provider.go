package providers

import (
	"context"

	"auto-ai/router/pkg/gateway/types"
)

// Provider is the interface every credential adapter implements. It accepts
// OpenAI-format requests and returns OpenAI-format responses, hiding the
// upstream's native schema entirely.
//
// All methods accept a context.Context for cancellation and timeout control
// and perform exactly one upstream attempt. Callers decide whether and where
// to retry based on the returned typed errors.
type Provider interface {
	// Name returns the credential name from configuration.
	Name() string

	// Type returns the provider type (openai, anthropic, vertex, gemini).
	Type() Type

	// Complete sends a non-streaming chat completion request.
	Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error)

	// StreamCompletion sends a streaming chat completion request.
	// A nil error means the upstream accepted the request (2xx) and the
	// stream is open; nothing has been forwarded to the client yet, so a
	// non-nil error here is always safe to fail over.
	//
	// The caller must drain the channel. The channel is closed when the
	// upstream stream ends; a chunk with Error set is terminal.
	StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *StreamChunk, error)

	// Embeddings sends an embedding request.
	// Returns ErrNotSupported for providers without an embedding API.
	Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error)

	// GenerateImages sends an image generation request.
	// Returns ErrNotSupported for providers without an image API.
	GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error)

	// Close releases HTTP connections. The provider must not be used after.
	Close() error
}
