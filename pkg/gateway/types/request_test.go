package types

import (
	"encoding/json"
	"reflect"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestChatCompletionRequestValidate(t *testing.T) {
	valid := ChatCompletionRequest{
		Model: "gpt-4o",
		Messages: []Message{
			{Role: "user", Content: "hello"},
		},
	}

	tests := []struct {
		name      string
		modify    func(r *ChatCompletionRequest)
		wantErr   bool
		wantField string
	}{
		{
			name:   "valid request",
			modify: func(r *ChatCompletionRequest) {},
		},
		{
			name:      "missing model",
			modify:    func(r *ChatCompletionRequest) { r.Model = "" },
			wantErr:   true,
			wantField: "model",
		},
		{
			name:      "empty messages",
			modify:    func(r *ChatCompletionRequest) { r.Messages = nil },
			wantErr:   true,
			wantField: "messages",
		},
		{
			name:      "temperature too high",
			modify:    func(r *ChatCompletionRequest) { r.Temperature = floatPtr(2.5) },
			wantErr:   true,
			wantField: "temperature",
		},
		{
			name:      "top_p out of range",
			modify:    func(r *ChatCompletionRequest) { r.TopP = floatPtr(1.5) },
			wantErr:   true,
			wantField: "top_p",
		},
		{
			name:      "zero max_tokens",
			modify:    func(r *ChatCompletionRequest) { r.MaxTokens = intPtr(0) },
			wantErr:   true,
			wantField: "max_tokens",
		},
		{
			name:      "zero max_completion_tokens",
			modify:    func(r *ChatCompletionRequest) { r.MaxCompletionTokens = intPtr(0) },
			wantErr:   true,
			wantField: "max_tokens",
		},
		{
			name: "too many stop sequences",
			modify: func(r *ChatCompletionRequest) {
				r.Stop = []interface{}{"a", "b", "c", "d", "e"}
			},
			wantErr:   true,
			wantField: "stop",
		},
		{
			name: "message without role",
			modify: func(r *ChatCompletionRequest) {
				r.Messages = []Message{{Content: "hi"}}
			},
			wantErr:   true,
			wantField: "messages[0].role",
		},
		{
			name: "assistant message with tool calls and no content",
			modify: func(r *ChatCompletionRequest) {
				r.Messages = []Message{{
					Role: "assistant",
					ToolCalls: []ToolCall{{
						ID:       "call_abc",
						Type:     "function",
						Function: FunctionCall{Name: "f", Arguments: "{}"},
					}},
				}}
			},
		},
		{
			name: "json_schema format without schema",
			modify: func(r *ChatCompletionRequest) {
				r.ResponseFormat = &ResponseFormat{Type: "json_schema"}
			},
			wantErr:   true,
			wantField: "response_format.json_schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Messages = append([]Message(nil), valid.Messages...)
			tt.modify(&req)

			err := req.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				verr, ok := err.(*ValidationError)
				if !ok {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if verr.Field != tt.wantField {
					t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestStopSequences(t *testing.T) {
	tests := []struct {
		name string
		stop interface{}
		want []string
	}{
		{name: "nil", stop: nil, want: nil},
		{name: "single string", stop: "END", want: []string{"END"}},
		{name: "empty string", stop: "", want: nil},
		{name: "string array", stop: []interface{}{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed array drops non-strings", stop: []interface{}{"a", 1.0}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ChatCompletionRequest{Stop: tt.stop}
			got := r.StopSequences()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StopSequences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxOutputTokens(t *testing.T) {
	r := ChatCompletionRequest{}
	if r.MaxOutputTokens() != nil {
		t.Error("expected nil when neither limit is set")
	}

	r.MaxTokens = intPtr(100)
	if got := r.MaxOutputTokens(); got == nil || *got != 100 {
		t.Errorf("expected 100 from max_tokens, got %v", got)
	}

	r.MaxCompletionTokens = intPtr(200)
	if got := r.MaxOutputTokens(); got == nil || *got != 200 {
		t.Errorf("max_completion_tokens should take precedence, got %v", got)
	}
}

func TestContentParts(t *testing.T) {
	// Simulate a multimodal message as it arrives from JSON decoding.
	raw := `{
		"role": "user",
		"content": [
			{"type": "text", "text": "describe this"},
			{"type": "image_url", "image_url": {"url": "https://example.com/cat.png"}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	parts, err := msg.ContentParts()
	if err != nil {
		t.Fatalf("ContentParts: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "describe this" {
		t.Errorf("unexpected first part: %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "https://example.com/cat.png" {
		t.Errorf("unexpected second part: %+v", parts[1])
	}

	if got := msg.TextContent(); got != "describe this" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestTextContentString(t *testing.T) {
	msg := Message{Role: "user", Content: "plain"}
	if got := msg.TextContent(); got != "plain" {
		t.Errorf("TextContent() = %q, want %q", got, "plain")
	}

	parts, err := msg.ContentParts()
	if err != nil {
		t.Fatalf("ContentParts: %v", err)
	}
	if len(parts) != 1 || parts[0].Type != "text" || parts[0].Text != "plain" {
		t.Errorf("unexpected parts: %+v", parts)
	}
}
