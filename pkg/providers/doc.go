// Package providers defines the provider abstraction used by the gateway and
// the shared HTTP plumbing for talking to upstream LLM APIs.
//
// # Overview
//
// A Provider is constructed per configured credential and adapts the OpenAI
// wire schema to the upstream's native schema:
//
//   - openai: OpenAI and OpenAI-compatible endpoints (passthrough)
//   - anthropic: Anthropic Messages API
//   - vertex: Google Vertex AI (Gemini + Imagen, service-account auth)
//   - gemini: Google Gemini API (API-key auth, same payload shapes as vertex)
//
// Each implementation lives in its own subpackage and embeds *Client, which
// supplies connection pooling, typed error classification and Retry-After
// parsing. Providers perform exactly one upstream attempt per call; retry
// and failover across credentials is the dispatcher's job, informed by the
// typed errors returned from here.
//
// # Basic Usage
//
//	cfg := providers.Config{
//	    Name:    "openai-main",
//	    Type:    providers.TypeOpenAI,
//	    BaseURL: "https://api.openai.com",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 60 * time.Second,
//	}
//
//	provider, err := providers.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.Complete(ctx, &types.ChatCompletionRequest{
//	    Model:    "gpt-4o",
//	    Messages: []types.Message{{Role: "user", Content: "Hello!"}},
//	})
//
// # Streaming
//
// StreamCompletion returns a channel of StreamChunk values. Each chunk
// carries either an OpenAI-format chat.completion.chunk or a terminal
// error. The channel is closed when the upstream stream ends:
//
//	chunks, err := provider.StreamCompletion(ctx, req)
//	if err != nil {
//	    return err // nothing was forwarded yet, safe to fail over
//	}
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    forward(chunk.Chunk)
//	}
//
// # Error Handling
//
// The package defines specific error types for common failure scenarios:
//
//   - ProviderError: General provider errors (carries upstream status code)
//   - AuthError: Authentication failures (HTTP 401/403)
//   - RateLimitError: Rate limit exceeded (HTTP 429, carries Retry-After)
//   - TimeoutError: Request timeout
//   - ParseError: Response parsing failure
//   - StreamError: Mid-stream failure
//
// StatusCode(err) maps any of these back to the upstream HTTP status, which
// is what the ban registry keys its rules on.
//
// # Thread Safety
//
// All provider implementations are safe for concurrent use.
package providers
