package vertex

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// Provider adapts Google Vertex AI and the Gemini API. The two backends
// share payload shapes; the provider type on the credential selects the
// endpoint layout and authentication scheme.
type Provider struct {
	*providers.Client
}

// New creates a Vertex AI or Gemini provider for the given credential.
func New(cfg providers.Config, logger *slog.Logger) (*Provider, error) {
	switch cfg.Type {
	case providers.TypeVertex:
		if cfg.ProjectID == "" {
			return nil, &providers.ConfigError{
				Provider: cfg.Name,
				Field:    "project_id",
				Message:  "project_id is required for vertex credentials",
			}
		}
		if cfg.Tokens == nil {
			return nil, &providers.ConfigError{
				Provider: cfg.Name,
				Field:    "credentials",
				Message:  "service-account credentials are required for vertex credentials",
			}
		}
	case providers.TypeGemini:
		if cfg.APIKey == "" {
			return nil, &providers.ConfigError{
				Provider: cfg.Name,
				Field:    "api_key",
				Message:  "api_key is required for gemini credentials",
			}
		}
	default:
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "type",
			Message:  "vertex adapter supports types vertex and gemini",
		}
	}

	return &Provider{Client: providers.NewClient(cfg, logger)}, nil
}

// headers builds per-request authentication headers. Vertex tokens are
// short-lived, so they are resolved on every call.
func (p *Provider) headers(ctx context.Context) (map[string]string, error) {
	headers := map[string]string{"Content-Type": "application/json"}

	cfg := p.Config()
	if cfg.Type == providers.TypeGemini {
		headers["x-goog-api-key"] = cfg.APIKey
		return headers, nil
	}

	token, err := cfg.Tokens.Token(ctx)
	if err != nil {
		return nil, &providers.AuthError{
			Provider: cfg.Name,
			Message:  "failed to obtain access token: " + err.Error(),
		}
	}
	headers["Authorization"] = "Bearer " + token
	return headers, nil
}

// modelURL builds the method URL for a model on the configured backend.
func (p *Provider) modelURL(model, verb string) string {
	cfg := p.Config()
	if cfg.Type == providers.TypeGemini {
		return geminiModelURL(cfg.BaseURL, model, verb)
	}
	return vertexModelURL(cfg.ProjectID, cfg.Location, model, verb)
}

// Complete sends a non-streaming chat completion request.
func (p *Provider) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	native, err := FromOpenAI(req)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to convert request",
			Cause:    err,
		}
	}

	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp GenerateResponse
	url := p.modelURL(req.Model, "generateContent")
	if err := p.DoJSON(ctx, "POST", url, native, &resp, headers); err != nil {
		return nil, err
	}
	return ToOpenAI(&resp, req.Model), nil
}

// StreamCompletion sends a streaming chat completion request, translating
// the native SSE chunk stream into OpenAI chunks.
func (p *Provider) StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, error) {
	native, err := FromOpenAI(req)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to convert request",
			Cause:    err,
		}
	}
	body, err := json.Marshal(native)
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: p.Name(),
			Message:  "failed to encode request",
			Cause:    err,
		}
	}

	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}

	url := p.modelURL(req.Model, "streamGenerateContent") + "?alt=sse"
	resp, err := p.Do(ctx, "POST", url, body, headers)
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
			break
		}
		if err != nil {
			chunks <- &providers.StreamChunk{Error: &providers.StreamError{
				Provider: p.Name(),
				Message:  "failed to read stream",
				Cause:    err,
			}}
			return
		}

		var native GenerateResponse
		if err := json.Unmarshal([]byte(event.Data), &native); err != nil {
			p.Logger().DebugContext(ctx, "skipping malformed stream chunk",
				"provider", p.Name(), "error", err)
			continue
		}

		for _, chunk := range state.translate(&native) {
			select {
			case chunks <- &providers.StreamChunk{Chunk: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}

	select {
	case chunks <- &providers.StreamChunk{Chunk: state.finalChunk()}:
	case <-ctx.Done():
	}
}

// isImagenModel reports whether the model routes to the Imagen :predict
// surface rather than chat-based image generation.
func isImagenModel(model string) bool {
	return strings.HasPrefix(model, "imagen")
}

// now is stubbed in tests.
var now = time.Now
