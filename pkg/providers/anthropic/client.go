package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// DefaultBaseURL is the Anthropic API endpoint used when the credential
// does not override it.
const DefaultBaseURL = "https://api.anthropic.com"

// apiVersion is the anthropic-version header sent on every request.
const apiVersion = "2023-06-01"

// Provider adapts the Anthropic Messages API.
type Provider struct {
	*providers.Client
	baseURL string
}

// New creates an Anthropic provider for the given credential.
func New(cfg providers.Config, logger *slog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "api_key",
			Message:  "api_key is required for anthropic credentials",
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
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": apiVersion,
		"Content-Type":      "application/json",
	}
}

// Complete sends a non-streaming chat completion.
func (p *Provider) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	native, err := FromOpenAI(req)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to adapt request",
			Cause:    err,
		}
	}
	native.Stream = false

	var resp Response
	url := p.baseURL + "/v1/messages"
	if err := p.DoJSON(ctx, "POST", url, native, &resp, p.headers()); err != nil {
		return nil, err
	}

	return ToOpenAI(&resp, req.Model), nil
}

// StreamCompletion sends a streaming chat completion and translates the
// Messages API event stream into OpenAI chunks.
func (p *Provider) StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, error) {
	native, err := FromOpenAI(req)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to adapt request",
			Cause:    err,
		}
	}
	native.Stream = true

	body, err := json.Marshal(native)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to encode request",
			Cause:    err,
		}
	}

	url := p.baseURL + "/v1/messages"
	resp, err := p.Do(ctx, "POST", url, body, p.headers())
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk, 16)
	go p.readStream(ctx, resp.Body, req.Model, chunks)
	return chunks, nil
}

func (p *Provider) readStream(ctx context.Context, body io.ReadCloser, model string, chunks chan<- *providers.StreamChunk) {
	defer close(chunks)

	reader := providers.NewSSEReader(body)
	defer reader.Close()

	state := newStreamState(model)

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

		var streamEvent StreamEvent
		if err := json.Unmarshal([]byte(event.Data), &streamEvent); err != nil {
			p.Logger().DebugContext(ctx, "skipping malformed stream event",
				"provider", p.Name(), "error", err)
			continue
		}
		if streamEvent.Type == "" {
			streamEvent.Type = event.Type
		}

		chunk, done, err := state.translate(&streamEvent)
		if err != nil {
			chunks <- &providers.StreamChunk{Error: &providers.StreamError{
				Provider: p.Name(),
				Message:  "stream translation failed",
				Cause:    err,
			}}
			return
		}
		if chunk != nil {
			select {
			case chunks <- &providers.StreamChunk{Chunk: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if done {
			return
		}
	}
}

// Embeddings is not supported by the Messages API.
func (p *Provider) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	return nil, providers.ErrNotSupported
}

// GenerateImages is not supported by the Messages API.
func (p *Provider) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	return nil, providers.ErrNotSupported
}
