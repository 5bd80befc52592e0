package vertex

import (
	"encoding/json"
	"reflect"
	"testing"

	"auto-ai/router/pkg/gateway/types"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestFromOpenAISystemInstruction(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model: "gemini-2.0-flash",
		Messages: []types.Message{
			{Role: "system", Content: "be brief"},
			{Role: "developer", Content: "be polite"},
			{Role: "user", Content: "hi"},
		},
	}

	native, err := FromOpenAI(req)
	if err != nil {
		t.Fatalf("FromOpenAI: %v", err)
	}

	if native.SystemInstruction == nil {
		t.Fatal("expected systemInstruction")
	}
	if len(native.SystemInstruction.Parts) != 2 {
		t.Fatalf("system parts = %d, want 2", len(native.SystemInstruction.Parts))
	}
	if native.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("first system part = %q", native.SystemInstruction.Parts[0].Text)
	}
	if len(native.Contents) != 1 || native.Contents[0].Role != "user" {
		t.Fatalf("contents = %+v, want single user turn", native.Contents)
	}
}

func TestFromOpenAIAssistantRole(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model: "gemini-2.0-flash",
		Messages: []types.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "more"},
		},
	}

	native, err := FromOpenAI(req)
	if err != nil {
		t.Fatalf("FromOpenAI: %v", err)
	}
	if len(native.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(native.Contents))
	}
	if native.Contents[1].Role != "model" {
		t.Errorf("assistant role = %q, want model", native.Contents[1].Role)
	}
}

func TestFromOpenAIToolLoop(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model: "gemini-2.0-flash",
		Messages: []types.Message{
			{Role: "user", Content: "weather in Oslo?"},
			{
				Role: "assistant",
				ToolCalls: []types.ToolCall{{
					ID:   "call_abc",
					Type: "function",
					Function: types.FunctionCall{
						Name:      "get_weather",
						Arguments: `{"city":"Oslo"}`,
					},
				}},
			},
			{Role: "tool", ToolCallID: "call_abc", Content: `{"temp":7}`},
		},
	}

	native, err := FromOpenAI(req)
	if err != nil {
		t.Fatalf("FromOpenAI: %v", err)
	}
	if len(native.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(native.Contents))
	}

	call := native.Contents[1].Parts[0].FunctionCall
	if call == nil {
		t.Fatal("expected functionCall part")
	}
	if call.Name != "get_weather" {
		t.Errorf("call name = %q", call.Name)
	}
	if call.Args["city"] != "Oslo" {
		t.Errorf("call args = %v", call.Args)
	}

	result := native.Contents[2].Parts[0].FunctionResponse
	if result == nil {
		t.Fatal("expected functionResponse part")
	}
	if result.Name != "get_weather" {
		t.Errorf("response name = %q, want name recovered from tool call", result.Name)
	}
	if result.Response["temp"] != float64(7) {
		t.Errorf("response payload = %v", result.Response)
	}
	if native.Contents[2].Role != "user" {
		t.Errorf("tool result role = %q, want user", native.Contents[2].Role)
	}
}

func TestToolResponseNonJSONWrapped(t *testing.T) {
	msg := types.Message{Role: "tool", Name: "lookup", Content: "plain text result"}
	content := toolResponseContent(&msg, nil)

	resp := content.Parts[0].FunctionResponse
	if resp.Name != "lookup" {
		t.Errorf("name = %q", resp.Name)
	}
	if resp.Response["output"] != "plain text result" {
		t.Errorf("response = %v, want wrapped output", resp.Response)
	}
}

func TestToolResponseFallbackName(t *testing.T) {
	msg := types.Message{Role: "tool", ToolCallID: "call_unknown", Content: "{}"}
	content := toolResponseContent(&msg, nil)
	if got := content.Parts[0].FunctionResponse.Name; got != "tool_result" {
		t.Errorf("name = %q, want tool_result", got)
	}
}

func TestFromOpenAIMultimodal(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model: "gemini-2.0-flash",
		Messages: []types.Message{{
			Role: "user",
			Content: []interface{}{
				map[string]interface{}{"type": "text", "text": "what is this?"},
				map[string]interface{}{
					"type":      "image_url",
					"image_url": map[string]interface{}{"url": "data:image/png;base64,AAAA"},
				},
				map[string]interface{}{
					"type":      "image_url",
					"image_url": map[string]interface{}{"url": "https://example.com/cat.png"},
				},
			},
		}},
	}

	native, err := FromOpenAI(req)
	if err != nil {
		t.Fatalf("FromOpenAI: %v", err)
	}

	parts := native.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	inline := parts[1].InlineData
	if inline == nil || inline.MimeType != "image/png" || inline.Data != "AAAA" {
		t.Errorf("inlineData = %+v", inline)
	}
	file := parts[2].FileData
	if file == nil || file.FileURI != "https://example.com/cat.png" || file.MimeType != "image/png" {
		t.Errorf("fileData = %+v", file)
	}
}

func TestGenerationConfig(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model:       "gemini-2.0-flash",
		Temperature: floatPtr(0.3),
		MaxTokens:   intPtr(256),
		Stop:        []interface{}{"END"},
		ResponseFormat: &types.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &types.JSONSchemaFormat{
				Name: "answer",
				Schema: map[string]interface{}{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]interface{}{
						"value": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}

	cfg := generationConfig(req)
	if cfg == nil {
		t.Fatal("expected generationConfig")
	}
	if *cfg.Temperature != 0.3 {
		t.Errorf("temperature = %v", *cfg.Temperature)
	}
	if *cfg.MaxOutputTokens != 256 {
		t.Errorf("maxOutputTokens = %v", *cfg.MaxOutputTokens)
	}
	if !reflect.DeepEqual(cfg.StopSequences, []string{"END"}) {
		t.Errorf("stopSequences = %v", cfg.StopSequences)
	}
	if cfg.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", cfg.ResponseMimeType)
	}
	if cfg.ResponseSchema["title"] != "answer" {
		t.Errorf("schema title = %v", cfg.ResponseSchema["title"])
	}
	if _, ok := cfg.ResponseSchema["additionalProperties"]; ok {
		t.Error("additionalProperties should be stripped")
	}
}

func TestGenerationConfigEmpty(t *testing.T) {
	req := &types.ChatCompletionRequest{Model: "gemini-2.0-flash"}
	if cfg := generationConfig(req); cfg != nil {
		t.Errorf("cfg = %+v, want nil", cfg)
	}
}

func TestGenerationConfigModalities(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model:      "gemini-2.5-flash-image",
		Modalities: []string{"text", "image"},
	}

	cfg := generationConfig(req)
	if cfg == nil {
		t.Fatal("cfg = nil")
	}
	if len(cfg.ResponseModalities) != 2 ||
		cfg.ResponseModalities[0] != "TEXT" || cfg.ResponseModalities[1] != "IMAGE" {
		t.Errorf("responseModalities = %v", cfg.ResponseModalities)
	}
}

func TestConvertToolChoice(t *testing.T) {
	tests := []struct {
		name   string
		choice interface{}
		mode   string
		fns    []string
	}{
		{"nil", nil, "", nil},
		{"none", "none", "NONE", nil},
		{"auto", "auto", "AUTO", nil},
		{"required", "required", "ANY", nil},
		{
			"named function",
			map[string]interface{}{
				"type":     "function",
				"function": map[string]interface{}{"name": "get_weather"},
			},
			"ANY",
			[]string{"get_weather"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertToolChoice(tt.choice)
			if tt.mode == "" {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil")
			}
			if got.FunctionCallingConfig.Mode != tt.mode {
				t.Errorf("mode = %q, want %q", got.FunctionCallingConfig.Mode, tt.mode)
			}
			if !reflect.DeepEqual(got.FunctionCallingConfig.AllowedFunctionNames, tt.fns) {
				t.Errorf("allowed = %v, want %v", got.FunctionCallingConfig.AllowedFunctionNames, tt.fns)
			}
		})
	}
}

func TestFromOpenAIToolDeclarations(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model: "gemini-2.0-flash",
		Messages: []types.Message{
			{Role: "user", Content: "hi"},
		},
		Tools: []types.Tool{{
			Type: "function",
			Function: types.FunctionDefinition{
				Name:        "get_weather",
				Description: "look up weather",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"city": map[string]interface{}{"type": "string"},
					},
				},
			},
		}},
		ToolChoice: "auto",
	}

	native, err := FromOpenAI(req)
	if err != nil {
		t.Fatalf("FromOpenAI: %v", err)
	}
	if len(native.Tools) != 1 || len(native.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("tools = %+v", native.Tools)
	}
	decl := native.Tools[0].FunctionDeclarations[0]
	if decl.Name != "get_weather" || decl.Description != "look up weather" {
		t.Errorf("declaration = %+v", decl)
	}
	if native.ToolConfig == nil || native.ToolConfig.FunctionCallingConfig.Mode != "AUTO" {
		t.Errorf("toolConfig = %+v", native.ToolConfig)
	}
}

func TestMediaPartDataURLDefaultsMimeType(t *testing.T) {
	part, ok := mediaPart("data:;base64,BBBB")
	if !ok {
		t.Fatal("expected part")
	}
	if part.InlineData.MimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", part.InlineData.MimeType)
	}
}

func TestRequestSerializationOmitsEmpty(t *testing.T) {
	native := &GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "hi"}}}},
	}
	raw, err := json.Marshal(native)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"systemInstruction", "generationConfig", "tools", "toolConfig"} {
		if jsonHasKey(raw, key) {
			t.Errorf("serialized request contains empty %q", key)
		}
	}
}

func jsonHasKey(raw []byte, key string) bool {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}
