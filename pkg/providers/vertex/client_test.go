package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

func geminiConfig(baseURL string) providers.Config {
	return providers.Config{
		Name:    "gem-1",
		Type:    providers.TypeGemini,
		APIKey:  "test-key",
		BaseURL: baseURL,
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  providers.Config
		ok   bool
	}{
		{"gemini ok", providers.Config{Name: "g", Type: providers.TypeGemini, APIKey: "k"}, true},
		{"gemini missing key", providers.Config{Name: "g", Type: providers.TypeGemini}, false},
		{
			"vertex ok",
			providers.Config{Name: "v", Type: providers.TypeVertex, ProjectID: "p", Tokens: &staticTokens{token: "t"}},
			true,
		},
		{
			"vertex missing project",
			providers.Config{Name: "v", Type: providers.TypeVertex, Tokens: &staticTokens{token: "t"}},
			false,
		},
		{
			"vertex missing credentials",
			providers.Config{Name: "v", Type: providers.TypeVertex, ProjectID: "p"},
			false,
		},
		{"wrong type", providers.Config{Name: "x", Type: providers.TypeOpenAI, APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			if tt.ok && err != nil {
				t.Errorf("New: %v", err)
			}
			if !tt.ok {
				var cfgErr *providers.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("err = %v, want ConfigError", err)
				}
			}
		})
	}
}

func TestCompleteRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		var native GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&native); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(native.Contents) != 1 || native.Contents[0].Parts[0].Text != "hi" {
			t.Errorf("contents = %+v", native.Contents)
		}

		json.NewEncoder(w).Encode(GenerateResponse{
			Candidates: []Candidate{{
				Content:      Content{Role: "model", Parts: []Part{{Text: "hello"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &UsageMetadata{PromptTokenCount: 2, CandidatesTokenCount: 1},
		})
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	resp, err := p.Complete(context.Background(), &types.ChatCompletionRequest{
		Model:    "gemini-2.0-flash",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Choices[0].Message.Content != "hello" {
		t.Errorf("content = %q", resp.Choices[0].Message.Content)
	}
	if resp.Usage.TotalTokens != 3 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestStreamCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "alt=sse" {
			t.Errorf("query = %q, want alt=sse", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"Hel"}]}}]}` + "\n\n"))
		w.Write([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"lo"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":1}}` + "\n\n"))
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	chunks, err := p.StreamCompletion(context.Background(), &types.ChatCompletionRequest{
		Model:    "gemini-2.0-flash",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}

	var got []*types.ChatCompletionStreamChunk
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		got = append(got, chunk.Chunk)
	}

	// Two content chunks plus the synthesized terminal chunk.
	if len(got) != 3 {
		t.Fatalf("chunks = %d, want 3", len(got))
	}
	if got[0].Choices[0].Delta.Role != "assistant" {
		t.Error("first chunk missing role")
	}
	if got[0].Choices[0].Delta.Content+got[1].Choices[0].Delta.Content != "Hello" {
		t.Errorf("content = %q%q", got[0].Choices[0].Delta.Content, got[1].Choices[0].Delta.Content)
	}
	final := got[2]
	if final.Choices[0].FinishReason == nil || *final.Choices[0].FinishReason != "stop" {
		t.Errorf("finish = %v", final.Choices[0].FinishReason)
	}
	if final.Usage == nil || final.Usage.TotalTokens != 3 {
		t.Errorf("usage = %+v", final.Usage)
	}
}

func TestStreamCompletionErrorBeforeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	_, err = p.StreamCompletion(context.Background(), &types.ChatCompletionRequest{
		Model:    "gemini-2.0-flash",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	var rateErr *providers.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
}

func TestVertexAuthHeaders(t *testing.T) {
	p, err := New(providers.Config{
		Name:      "v",
		Type:      providers.TypeVertex,
		ProjectID: "proj",
		Location:  "us-central1",
		Tokens:    &staticTokens{token: "oauth-token"},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	headers, err := p.headers(context.Background())
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if headers["Authorization"] != "Bearer oauth-token" {
		t.Errorf("authorization = %q", headers["Authorization"])
	}
	if _, ok := headers["x-goog-api-key"]; ok {
		t.Error("vertex credentials must not send an api key header")
	}
}

func TestVertexTokenFailure(t *testing.T) {
	p, err := New(providers.Config{
		Name:      "v",
		Type:      providers.TypeVertex,
		ProjectID: "proj",
		Tokens:    &staticTokens{err: errors.New("expired key")},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	_, err = p.Complete(context.Background(), &types.ChatCompletionRequest{
		Model:    "gemini-2.0-flash",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})
	var authErr *providers.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}
}

func TestGenerateImagesPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/imagen-3.0-generate-002:predict" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var native PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&native); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if native.Instances[0]["prompt"] != "a red fox" {
			t.Errorf("prompt = %v", native.Instances[0]["prompt"])
		}
		if native.Parameters["sampleCount"] != float64(2) {
			t.Errorf("sampleCount = %v", native.Parameters["sampleCount"])
		}
		if native.Parameters["aspectRatio"] != "16:9" {
			t.Errorf("aspectRatio = %v", native.Parameters["aspectRatio"])
		}
		if native.Parameters["personGeneration"] != "allow_adult" {
			t.Errorf("personGeneration = %v", native.Parameters["personGeneration"])
		}

		json.NewEncoder(w).Encode(PredictResponse{
			Predictions: []Prediction{
				{BytesBase64Encoded: "AAAA", MimeType: "image/png"},
				{BytesBase64Encoded: "BBBB", MimeType: "image/png"},
			},
		})
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	n := 2
	resp, err := p.GenerateImages(context.Background(), &types.ImageGenerationRequest{
		Model:  "imagen-3.0-generate-002",
		Prompt: "a red fox",
		N:      &n,
		Size:   "1792x1024",
	})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].B64JSON != "AAAA" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestGenerateImagesChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash-exp:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var native GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&native); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if native.GenerationConfig == nil || len(native.GenerationConfig.ResponseModalities) != 1 ||
			native.GenerationConfig.ResponseModalities[0] != "IMAGE" {
			t.Errorf("generationConfig = %+v", native.GenerationConfig)
		}

		json.NewEncoder(w).Encode(GenerateResponse{
			Candidates: []Candidate{{
				Content: Content{Parts: []Part{
					{InlineData: &Blob{MimeType: "image/png", Data: "CCCC"}},
				}},
			}},
		})
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	resp, err := p.GenerateImages(context.Background(), &types.ImageGenerationRequest{
		Model:  "gemini-2.0-flash-exp",
		Prompt: "a fox",
	})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].B64JSON != "CCCC" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestGeminiEmbeddings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/text-embedding-004:batchEmbedContents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var native BatchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&native); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(native.Requests) != 2 {
			t.Fatalf("requests = %d", len(native.Requests))
		}
		if native.Requests[0].Model != "models/text-embedding-004" {
			t.Errorf("model = %q", native.Requests[0].Model)
		}

		json.NewEncoder(w).Encode(BatchEmbedResponse{
			Embeddings: []ContentEmbedding{
				{Values: []float64{0.1, 0.2}},
				{Values: []float64{0.3, 0.4}},
			},
		})
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	resp, err := p.Embeddings(context.Background(), &types.EmbeddingRequest{
		Model: "text-embedding-004",
		Input: []interface{}{"alpha", "beta"},
	})
	if err != nil {
		t.Fatalf("Embeddings: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[1].Index != 1 {
		t.Errorf("data = %+v", resp.Data)
	}
	if resp.Data[0].Embedding[1] != 0.2 {
		t.Errorf("embedding = %v", resp.Data[0].Embedding)
	}
}

func TestImagenSampleCountCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var native PredictRequest
		json.NewDecoder(r.Body).Decode(&native)
		if native.Parameters["sampleCount"] != float64(maxImagenSamples) {
			t.Errorf("sampleCount = %v, want cap %d", native.Parameters["sampleCount"], maxImagenSamples)
		}
		json.NewEncoder(w).Encode(PredictResponse{
			Predictions: []Prediction{{BytesBase64Encoded: "AA"}},
		})
	}))
	defer server.Close()

	p, err := New(geminiConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	n := 25
	if _, err := p.GenerateImages(context.Background(), &types.ImageGenerationRequest{
		Model:  "imagen-3.0-generate-002",
		Prompt: "many foxes",
		N:      &n,
	}); err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
}
