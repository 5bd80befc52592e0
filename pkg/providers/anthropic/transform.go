package anthropic

import (
	"encoding/json"
	"strings"
	"time"

	"auto-ai/router/pkg/gateway/types"
)

// defaultMaxTokens is used when the client omits a completion limit.
// The Messages API requires max_tokens on every request.
const defaultMaxTokens = 4096

// FromOpenAI converts an OpenAI chat completion request into a Messages
// API request.
func FromOpenAI(req *types.ChatCompletionRequest) (*Request, error) {
	out := &Request{
		Model:         req.Model,
		MaxTokens:     defaultMaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.StopSequences(),
		Stream:        req.Stream,
	}

	if mt := req.MaxOutputTokens(); mt != nil {
		out.MaxTokens = *mt
	}

	if req.User != "" {
		out.Metadata = &Metadata{UserID: req.User}
	}

	var systemParts []string
	for i := range req.Messages {
		msg := &req.Messages[i]
		switch msg.Role {
		case "system", "developer":
			systemParts = append(systemParts, msg.TextContent())

		case "tool":
			toolUseID := msg.ToolCallID
			if toolUseID == "" {
				toolUseID = msg.Name
			}
			out.Messages = append(out.Messages, MessageParam{
				Role: "user",
				Content: []ContentBlock{{
					Type:      "tool_result",
					ToolUseID: toolUseID,
					Content:   msg.TextContent(),
				}},
			})

		case "assistant":
			blocks, err := assistantBlocks(msg)
			if err != nil {
				return nil, err
			}
			out.Messages = append(out.Messages, MessageParam{Role: "assistant", Content: blocks})

		default: // user
			blocks, err := userBlocks(msg)
			if err != nil {
				return nil, err
			}
			out.Messages = append(out.Messages, MessageParam{Role: "user", Content: blocks})
		}
	}

	if len(systemParts) > 0 {
		out.System = strings.Join(systemParts, "\n")
	}

	for _, tool := range req.Tools {
		schema := tool.Function.Parameters
		if schema == nil {
			schema = map[string]interface{}{"type": "object"}
		}
		out.Tools = append(out.Tools, Tool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: schema,
		})
	}

	if len(out.Tools) > 0 {
		out.ToolChoice = convertToolChoice(req.ToolChoice)
	}

	return out, nil
}

// assistantBlocks converts an assistant message, including any tool calls,
// into content blocks.
func assistantBlocks(msg *types.Message) ([]ContentBlock, error) {
	var blocks []ContentBlock

	if text := msg.TextContent(); text != "" {
		blocks = append(blocks, ContentBlock{Type: "text", Text: text})
	}

	for _, call := range msg.ToolCalls {
		input := map[string]interface{}{}
		if args := call.Function.Arguments; args != "" {
			if err := json.Unmarshal([]byte(args), &input); err != nil {
				input = map[string]interface{}{}
			}
		}
		blocks = append(blocks, ContentBlock{
			Type:  "tool_use",
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		})
	}

	if len(blocks) == 0 {
		blocks = append(blocks, ContentBlock{Type: "text", Text: ""})
	}
	return blocks, nil
}

// userBlocks converts a user message, including multimodal parts, into
// content blocks.
func userBlocks(msg *types.Message) ([]ContentBlock, error) {
	parts, err := msg.ContentParts()
	if err != nil {
		return nil, err
	}

	var blocks []ContentBlock
	for _, part := range parts {
		switch part.Type {
		case "text":
			blocks = append(blocks, ContentBlock{Type: "text", Text: part.Text})

		case "image_url":
			if part.ImageURL == nil {
				continue
			}
			if block, ok := imageBlock(part.ImageURL.URL); ok {
				blocks = append(blocks, block)
			}

		case "file":
			if part.File == nil {
				continue
			}
			data := part.File.FileData
			if data == "" {
				data = part.File.FileID
			}
			if block, ok := documentBlock(data); ok {
				blocks = append(blocks, block)
			}
		}
	}

	if len(blocks) == 0 {
		blocks = append(blocks, ContentBlock{Type: "text", Text: ""})
	}
	return blocks, nil
}

// imageBlock builds an image content block from a data URL or a plain URL.
func imageBlock(url string) (ContentBlock, bool) {
	if mediaType, data, ok := parseDataURL(url); ok {
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		return ContentBlock{
			Type:   "image",
			Source: &Source{Type: "base64", MediaType: mediaType, Data: data},
		}, true
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return ContentBlock{
			Type:   "image",
			Source: &Source{Type: "url", URL: url},
		}, true
	}
	return ContentBlock{}, false
}

// documentBlock builds a document content block from a data URL carrying
// an application/* or text/* payload.
func documentBlock(url string) (ContentBlock, bool) {
	mediaType, data, ok := parseDataURL(url)
	if !ok {
		return ContentBlock{}, false
	}
	if !strings.HasPrefix(mediaType, "application/") && !strings.HasPrefix(mediaType, "text/") {
		return ContentBlock{}, false
	}
	return ContentBlock{
		Type:   "document",
		Source: &Source{Type: "base64", MediaType: mediaType, Data: data},
	}, true
}

// parseDataURL splits a "data:<media-type>;base64,<payload>" URL.
func parseDataURL(url string) (mediaType, data string, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", "", false
	}
	rest := strings.TrimPrefix(url, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return "", "", false
	}
	meta := rest[:comma]
	data = rest[comma+1:]
	mediaType = strings.TrimSuffix(meta, ";base64")
	return mediaType, data, true
}

// convertToolChoice maps the OpenAI tool_choice field to Anthropic form.
func convertToolChoice(choice interface{}) *ToolChoice {
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "none":
			return &ToolChoice{Type: "none"}
		case "required":
			return &ToolChoice{Type: "any"}
		case "auto":
			return &ToolChoice{Type: "auto"}
		}
		return nil
	case map[string]interface{}:
		if fn, ok := c["function"].(map[string]interface{}); ok {
			if name, ok := fn["name"].(string); ok && name != "" {
				return &ToolChoice{Type: "tool", Name: name}
			}
		}
		return nil
	default:
		return nil
	}
}

// ToOpenAI converts a Messages API response into an OpenAI chat completion.
func ToOpenAI(resp *Response, model string) *types.ChatCompletionResponse {
	msg := types.Message{Role: "assistant"}

	var text strings.Builder
	var reasoning strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "thinking":
			reasoning.WriteString(block.Thinking)
		case "tool_use":
			args := "{}"
			if len(block.Input) > 0 {
				if raw, err := json.Marshal(block.Input); err == nil {
					args = string(raw)
				}
			}
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:   block.ID, // upstream ids pass through unchanged
				Type: "function",
				Function: types.FunctionCall{
					Name:      block.Name,
					Arguments: args,
				},
			})
		}
	}
	msg.Content = text.String()
	msg.ReasoningContent = reasoning.String()

	return &types.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.Choice{{
			Index:        0,
			Message:      msg,
			FinishReason: mapStopReason(resp.StopReason),
		}},
		Usage: normalizeUsage(&resp.Usage),
	}
}

// mapStopReason maps Anthropic stop reasons onto OpenAI finish reasons.
func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return "stop"
	}
}

// normalizeUsage converts Messages API usage into OpenAI usage.
// The total is always computed from the parts.
func normalizeUsage(u *UsageInfo) types.Usage {
	out := types.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
	if u.CacheReadInputTokens > 0 {
		out.PromptTokensDetails = &types.PromptTokensDetails{
			CachedTokens: u.CacheReadInputTokens,
		}
	}
	return out
}
