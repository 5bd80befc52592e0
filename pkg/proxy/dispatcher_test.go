package proxy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
	"auto-ai/router/pkg/routing"
)

// fakeProvider scripts upstream behavior per call.
type fakeProvider struct {
	name string

	completeErrs  []error
	completeCalls int
	lastModel     string
	response      *types.ChatCompletionResponse

	streamErrs  []error
	streamCalls int
	chunks      []*providers.StreamChunk

	embedResponse *types.EmbeddingResponse
	embedErr      error
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) Type() providers.Type { return providers.TypeOpenAI }
func (f *fakeProvider) Close() error         { return nil }

func (f *fakeProvider) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	call := f.completeCalls
	f.completeCalls++
	f.lastModel = req.Model
	if call < len(f.completeErrs) && f.completeErrs[call] != nil {
		return nil, f.completeErrs[call]
	}
	if f.response != nil {
		resp := *f.response
		return &resp, nil
	}
	return &types.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
		Usage:  types.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, error) {
	call := f.streamCalls
	f.streamCalls++
	f.lastModel = req.Model
	if call < len(f.streamErrs) && f.streamErrs[call] != nil {
		return nil, f.streamErrs[call]
	}
	ch := make(chan *providers.StreamChunk, len(f.chunks))
	for _, chunk := range f.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.embedResponse != nil {
		resp := *f.embedResponse
		resp.Model = req.Model
		return &resp, nil
	}
	return nil, providers.ErrNotSupported
}

func (f *fakeProvider) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	return nil, providers.ErrNotSupported
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, creds []*routing.Credential, models []routing.ModelInfo) *Dispatcher {
	t.Helper()
	logger := discardLogger()
	router := routing.NewRouter(creds, routing.NewCatalog(models), nil, nil, logger)
	return NewDispatcher(DispatcherConfig{
		Router: router,
		Logger: logger,
	})
}

func chatRequest(model string) *types.ChatCompletionRequest {
	return &types.ChatCompletionRequest{
		Model:    model,
		Messages: []types.Message{{Role: "user", Content: "hello"}},
	}
}

func TestCompleteRewritesModelAlias(t *testing.T) {
	fake := &fakeProvider{name: "primary"}
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: fake}},
		[]routing.ModelInfo{{ID: "gpt-test", Upstream: "gpt-upstream"}},
	)

	resp, cred, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp != nil {
		t.Fatalf("Complete: %+v", errResp.Error)
	}
	if cred != "primary" {
		t.Errorf("credential = %q, want primary", cred)
	}
	if fake.lastModel != "gpt-upstream" {
		t.Errorf("upstream saw model %q, want gpt-upstream", fake.lastModel)
	}
	if resp.Model != "gpt-test" {
		t.Errorf("response model = %q, want gpt-test", resp.Model)
	}
}

func TestCompleteNormalizesUsage(t *testing.T) {
	fake := &fakeProvider{
		name: "primary",
		response: &types.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Usage: types.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 99},
		},
	}
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: fake}},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	resp, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp != nil {
		t.Fatalf("Complete: %+v", errResp.Error)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want computed sum 15", resp.Usage.TotalTokens)
	}
}

func TestCompleteFailsOverOnRetryableError(t *testing.T) {
	failing := &fakeProvider{
		name: "flaky",
		completeErrs: []error{
			&providers.ProviderError{Provider: "flaky", StatusCode: 500, Message: "upstream exploded"},
		},
	}
	healthy := &fakeProvider{name: "backup"}
	d := newTestDispatcher(t,
		[]*routing.Credential{
			{Name: "flaky", Provider: failing},
			{Name: "backup", Provider: healthy},
		},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	resp, cred, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp != nil {
		t.Fatalf("Complete: %+v", errResp.Error)
	}
	if resp == nil {
		t.Fatal("expected a response after failover")
	}
	if failing.completeCalls+healthy.completeCalls != 2 {
		t.Errorf("total calls = %d, want 2", failing.completeCalls+healthy.completeCalls)
	}
	if cred != "backup" && cred != "flaky" {
		t.Errorf("credential = %q", cred)
	}
	if healthy.completeCalls == 0 && failing.completeCalls < 2 {
		t.Error("expected a second attempt somewhere")
	}
}

func TestCompleteFailsOverOnRateLimit(t *testing.T) {
	limited := &fakeProvider{
		name: "limited",
		completeErrs: []error{
			&providers.RateLimitError{Provider: "limited", Message: "slow down"},
		},
	}
	healthy := &fakeProvider{name: "backup"}
	d := newTestDispatcher(t,
		[]*routing.Credential{
			{Name: "limited", Provider: limited},
			{Name: "backup", Provider: healthy},
		},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	_, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp != nil {
		t.Fatalf("expected failover to absorb the 429, got %+v", errResp.Error)
	}
	if limited.completeCalls+healthy.completeCalls != 2 {
		t.Errorf("total calls = %d, want 2", limited.completeCalls+healthy.completeCalls)
	}
}

func TestCompleteStopsOnClientError(t *testing.T) {
	fake := &fakeProvider{
		name: "primary",
		completeErrs: []error{
			&providers.ProviderError{Provider: "primary", StatusCode: 400, Message: "bad temperature"},
		},
	}
	d := newTestDispatcher(t,
		[]*routing.Credential{
			{Name: "primary", Provider: fake},
			{Name: "backup", Provider: &fakeProvider{name: "backup"}},
		},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	_, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp == nil {
		t.Fatal("expected an error response")
	}
	if got := errResp.Error.HTTPStatusCode(); got != 400 {
		t.Errorf("status = %d, want 400", got)
	}
	if fake.completeCalls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", fake.completeCalls)
	}
}

func TestCompleteExhaustsAttemptBudget(t *testing.T) {
	fake := &fakeProvider{
		name: "primary",
		completeErrs: []error{
			&providers.ProviderError{Provider: "primary", StatusCode: 500, Message: "boom"},
			&providers.ProviderError{Provider: "primary", StatusCode: 500, Message: "boom"},
			&providers.ProviderError{Provider: "primary", StatusCode: 500, Message: "boom"},
			&providers.ProviderError{Provider: "primary", StatusCode: 500, Message: "boom"},
		},
	}
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: fake}},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	_, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp == nil {
		t.Fatal("expected an error response")
	}
	if got := errResp.Error.HTTPStatusCode(); got != 502 {
		t.Errorf("status = %d, want 502", got)
	}
	if fake.completeCalls != DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", fake.completeCalls, DefaultMaxAttempts)
	}
}

func TestCompleteUnknownModel(t *testing.T) {
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: &fakeProvider{name: "primary"}}},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	_, _, errResp := d.Complete(context.Background(), chatRequest("nope"))
	if errResp == nil {
		t.Fatal("expected an error response")
	}
	if got := errResp.Error.HTTPStatusCode(); got != 404 {
		t.Errorf("status = %d, want 404", got)
	}
	if errResp.Error.Code != types.CodeModelNotFound {
		t.Errorf("code = %q, want %q", errResp.Error.Code, types.CodeModelNotFound)
	}
}

func TestCompleteRateLimitedPool(t *testing.T) {
	fake := &fakeProvider{name: "primary"}
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: fake, RPM: 1}},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	if _, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test")); errResp != nil {
		t.Fatalf("first request: %+v", errResp.Error)
	}
	_, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp == nil {
		t.Fatal("expected the second request to be rate limited")
	}
	if got := errResp.Error.HTTPStatusCode(); got != 429 {
		t.Errorf("status = %d, want 429", got)
	}
}

func TestCompleteNoCredentialsForModel(t *testing.T) {
	fake := &fakeProvider{name: "primary"}
	d := newTestDispatcher(t,
		[]*routing.Credential{{Name: "primary", Provider: fake, Models: []string{"other"}}},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	_, _, errResp := d.Complete(context.Background(), chatRequest("gpt-test"))
	if errResp == nil {
		t.Fatal("expected an error response")
	}
	if got := errResp.Error.HTTPStatusCode(); got != 503 {
		t.Errorf("status = %d, want 503", got)
	}
}

func TestOpenStreamFailsOverBeforeFirstByte(t *testing.T) {
	failing := &fakeProvider{
		name:       "flaky",
		streamErrs: []error{&providers.ProviderError{Provider: "flaky", StatusCode: 503, Message: "overloaded"}},
	}
	healthy := &fakeProvider{
		name:   "backup",
		chunks: []*providers.StreamChunk{{Chunk: &types.ChatCompletionStreamChunk{ID: "chatcmpl-1"}}},
	}
	d := newTestDispatcher(t,
		[]*routing.Credential{
			{Name: "flaky", Provider: failing},
			{Name: "backup", Provider: healthy},
		},
		[]routing.ModelInfo{{ID: "gpt-test"}},
	)

	stream, cred, errResp := d.OpenStream(context.Background(), chatRequest("gpt-test"))
	if errResp != nil {
		t.Fatalf("OpenStream: %+v", errResp.Error)
	}
	if stream == nil {
		t.Fatal("expected an open stream")
	}
	if failing.streamCalls+healthy.streamCalls != 2 {
		t.Errorf("total calls = %d, want 2", failing.streamCalls+healthy.streamCalls)
	}
	if cred == nil || cred.Name == "" {
		t.Fatal("expected the serving credential")
	}
	for range stream {
	}
}
