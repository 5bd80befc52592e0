package vertex

import (
	"encoding/json"
	"strings"

	"auto-ai/router/pkg/gateway/types"
)

// FromOpenAI converts an OpenAI chat completion request into a
// generateContent request.
func FromOpenAI(req *types.ChatCompletionRequest) (*GenerateRequest, error) {
	out := &GenerateRequest{}

	var systemParts []Part
	for i := range req.Messages {
		msg := &req.Messages[i]
		switch msg.Role {
		case "system", "developer":
			if text := msg.TextContent(); text != "" {
				systemParts = append(systemParts, Part{Text: text})
			}

		case "assistant":
			out.Contents = append(out.Contents, assistantContent(msg))

		case "tool":
			out.Contents = append(out.Contents, toolResponseContent(msg, req.Messages[:i]))

		default: // user
			content, err := userContent(msg)
			if err != nil {
				return nil, err
			}
			out.Contents = append(out.Contents, content)
		}
	}

	if len(systemParts) > 0 {
		out.SystemInstruction = &Content{Role: "user", Parts: systemParts}
	}

	out.GenerationConfig = generationConfig(req)

	if len(req.Tools) > 0 {
		decls := make([]FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, FunctionDeclaration{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  SanitizeSchema(tool.Function.Parameters),
			})
		}
		out.Tools = []Tool{{FunctionDeclarations: decls}}
		out.ToolConfig = convertToolChoice(req.ToolChoice)
	}

	return out, nil
}

// assistantContent converts an assistant turn to a "model" content.
func assistantContent(msg *types.Message) Content {
	var parts []Part

	if text := msg.TextContent(); text != "" {
		parts = append(parts, Part{Text: text})
	}

	for _, call := range msg.ToolCalls {
		args := map[string]interface{}{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{}
			}
		}
		parts = append(parts, Part{FunctionCall: &FunctionCall{
			Name: call.Function.Name,
			Args: args,
		}})
	}

	if len(parts) == 0 {
		parts = append(parts, Part{Text: ""})
	}
	return Content{Role: "model", Parts: parts}
}

// toolResponseContent converts a tool result message into a user content
// with a functionResponse part. The protocol addresses results by function
// name rather than call id, so the name is recovered from the originating
// assistant tool call when the message does not carry one.
func toolResponseContent(msg *types.Message, history []types.Message) Content {
	name := msg.Name
	if name == "" {
		name = functionNameForCall(msg.ToolCallID, history)
	}
	if name == "" {
		name = "tool_result"
	}

	raw := msg.TextContent()
	response := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &response); err != nil || raw == "" {
		response = map[string]interface{}{"output": raw}
	}

	return Content{
		Role: "user",
		Parts: []Part{{FunctionResponse: &FunctionResponse{
			Name:     name,
			Response: response,
		}}},
	}
}

// functionNameForCall scans earlier assistant turns for the tool call id.
func functionNameForCall(toolCallID string, history []types.Message) string {
	if toolCallID == "" {
		return ""
	}
	for i := len(history) - 1; i >= 0; i-- {
		for _, call := range history[i].ToolCalls {
			if call.ID == toolCallID {
				return call.Function.Name
			}
		}
	}
	return ""
}

// userContent converts a user turn, including multimodal parts.
func userContent(msg *types.Message) (Content, error) {
	parts, err := msg.ContentParts()
	if err != nil {
		return Content{}, err
	}

	var out []Part
	for _, part := range parts {
		switch part.Type {
		case "text":
			out = append(out, Part{Text: part.Text})

		case "image_url":
			if part.ImageURL == nil {
				continue
			}
			if p, ok := mediaPart(part.ImageURL.URL); ok {
				out = append(out, p)
			}

		case "file":
			if part.File == nil {
				continue
			}
			data := part.File.FileData
			if data == "" {
				data = part.File.FileID
			}
			if p, ok := mediaPart(data); ok {
				out = append(out, p)
			}
		}
	}

	if len(out) == 0 {
		out = append(out, Part{Text: ""})
	}
	return Content{Role: "user", Parts: out}, nil
}

// mediaPart builds an inlineData part from a data URL or a fileData part
// from a plain URI.
func mediaPart(url string) (Part, bool) {
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		comma := strings.Index(rest, ",")
		if comma < 0 {
			return Part{}, false
		}
		mimeType := strings.TrimSuffix(rest[:comma], ";base64")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return Part{InlineData: &Blob{MimeType: mimeType, Data: rest[comma+1:]}}, true
	}

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "gs://") {
		return Part{FileData: &FileData{
			MimeType: mimeTypeFromURI(url),
			FileURI:  url,
		}}, true
	}

	return Part{}, false
}

// mimeTypeFromURI guesses a mime type from the URI extension.
func mimeTypeFromURI(uri string) string {
	lower := strings.ToLower(uri)
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".mp4"):
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}

// generationConfig maps OpenAI sampling parameters.
func generationConfig(req *types.ChatCompletionRequest) *GenerationConfig {
	cfg := &GenerationConfig{
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxOutputTokens:  req.MaxOutputTokens(),
		CandidateCount:   req.N,
		Seed:             req.Seed,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		StopSequences:    req.StopSequences(),
	}

	for _, mod := range req.Modalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, strings.ToUpper(mod))
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_object":
			cfg.ResponseMimeType = "application/json"
		case "json_schema":
			cfg.ResponseMimeType = "application/json"
			if rf.JSONSchema != nil && rf.JSONSchema.Schema != nil {
				schema := SanitizeSchema(rf.JSONSchema.Schema)
				if rf.JSONSchema.Name != "" && schema != nil && schema["title"] == nil {
					schema["title"] = rf.JSONSchema.Name
				}
				cfg.ResponseSchema = schema
			}
		}
	}

	if cfg.Temperature == nil && cfg.TopP == nil && cfg.MaxOutputTokens == nil &&
		cfg.CandidateCount == nil && cfg.Seed == nil && cfg.PresencePenalty == nil &&
		cfg.FrequencyPenalty == nil && len(cfg.StopSequences) == 0 &&
		cfg.ResponseMimeType == "" && cfg.ResponseSchema == nil &&
		len(cfg.ResponseModalities) == 0 {
		return nil
	}
	return cfg
}

// convertToolChoice maps the OpenAI tool_choice field to a toolConfig.
func convertToolChoice(choice interface{}) *ToolConfig {
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "none":
			return &ToolConfig{FunctionCallingConfig: FunctionCallingConfig{Mode: "NONE"}}
		case "required":
			return &ToolConfig{FunctionCallingConfig: FunctionCallingConfig{Mode: "ANY"}}
		case "auto":
			return &ToolConfig{FunctionCallingConfig: FunctionCallingConfig{Mode: "AUTO"}}
		}
		return nil
	case map[string]interface{}:
		if fn, ok := c["function"].(map[string]interface{}); ok {
			if name, ok := fn["name"].(string); ok && name != "" {
				return &ToolConfig{FunctionCallingConfig: FunctionCallingConfig{
					Mode:                 "ANY",
					AllowedFunctionNames: []string{name},
				}}
			}
		}
		return nil
	default:
		return nil
	}
}
