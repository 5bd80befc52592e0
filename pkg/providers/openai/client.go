package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// DefaultBaseURL is the OpenAI API endpoint used when the credential does
// not override it.
const DefaultBaseURL = "https://api.openai.com"

// Provider adapts OpenAI and OpenAI-compatible endpoints.
type Provider struct {
	*providers.Client
	baseURL string
}

// New creates an OpenAI provider for the given credential.
func New(cfg providers.Config, logger *slog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "api_key",
			Message:  "api_key is required for openai credentials",
		}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		Client:  providers.NewClient(cfg, logger),
		baseURL: baseURL,
	}, nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.Config().APIKey,
		"Content-Type":  "application/json",
	}
}

// Complete forwards a chat completion request unchanged.
func (p *Provider) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	var resp types.ChatCompletionResponse
	url := p.baseURL + "/v1/chat/completions"
	if err := p.DoJSON(ctx, "POST", url, req, &resp, p.headers()); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamCompletion forwards a streaming chat completion request and relays
// the upstream chunks unchanged.
func (p *Provider) StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to encode request",
			Cause:    err,
		}
	}

	url := p.baseURL + "/v1/chat/completions"
	resp, err := p.Do(ctx, "POST", url, body, p.headers())
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk, 16)
	go p.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

func (p *Provider) readStream(ctx context.Context, body io.ReadCloser, chunks chan<- *providers.StreamChunk) {
	defer close(chunks)

	reader := providers.NewSSEReader(body)
	defer reader.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			chunks <- &providers.StreamChunk{Error: &providers.StreamError{
				Provider: p.Name(),
				Message:  "failed to read stream",
				Cause:    err,
			}}
			return
		}

		if event.Data == "[DONE]" {
			return
		}

		var chunk types.ChatCompletionStreamChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			// Skip malformed keep-alive or partial lines.
			p.Logger().DebugContext(ctx, "skipping malformed stream chunk",
				"provider", p.Name(), "error", err)
			continue
		}

		select {
		case chunks <- &providers.StreamChunk{Chunk: &chunk}:
		case <-ctx.Done():
			return
		}
	}
}

// Embeddings forwards an embedding request unchanged.
func (p *Provider) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	var resp types.EmbeddingResponse
	url := p.baseURL + "/v1/embeddings"
	if err := p.DoJSON(ctx, "POST", url, req, &resp, p.headers()); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateImages forwards an image generation request unchanged.
func (p *Provider) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	var resp types.ImageGenerationResponse
	url := p.baseURL + "/v1/images/generations"
	if err := p.DoJSON(ctx, "POST", url, req, &resp, p.headers()); err != nil {
		return nil, err
	}
	return &resp, nil
}
