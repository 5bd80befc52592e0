package types

import (
	"encoding/json"
	"fmt"
)

// ChatCompletionRequest represents an OpenAI-compatible chat completion request.
// This matches the OpenAI Chat Completions API format exactly to ensure
// compatibility with existing OpenAI SDKs and tools.
type ChatCompletionRequest struct {
	// Model is the ID of the model to use (e.g., "gpt-4o", "claude-sonnet-4").
	Model string `json:"model"`

	// Messages is the conversation history as a list of messages.
	Messages []Message `json:"messages"`

	// Temperature controls randomness in the response (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	// Deprecated by OpenAI in favor of MaxCompletionTokens but still widely sent.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// MaxCompletionTokens is the maximum number of completion tokens.
	// Takes precedence over MaxTokens when both are present.
	MaxCompletionTokens *int `json:"max_completion_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// N is the number of completions to generate for each prompt.
	N *int `json:"n,omitempty"`

	// Stream enables server-sent events (SSE) streaming.
	Stream bool `json:"stream,omitempty"`

	// StreamOptions configures streaming behavior (e.g., usage in the final chunk).
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	// Stop is a sequence (string) or list of sequences (array of strings)
	// where generation stops. Use StopSequences to read it uniformly.
	Stop interface{} `json:"stop,omitempty"`

	// PresencePenalty penalizes new tokens based on presence in text so far (-2.0 to 2.0).
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty penalizes new tokens based on frequency in text so far (-2.0 to 2.0).
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// Seed enables deterministic sampling where the provider supports it.
	Seed *int `json:"seed,omitempty"`

	// User is a unique identifier for the end-user making the request.
	User string `json:"user,omitempty"`

	// Tools is a list of tools/functions the model can call.
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls which tool the model should use.
	// Can be "none", "auto", "required", or
	// {"type": "function", "function": {"name": "my_function"}}.
	ToolChoice interface{} `json:"tool_choice,omitempty"`

	// ResponseFormat specifies the format of the response.
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Modalities requests output types beyond text (e.g. ["text", "image"])
	// for models that can emit images from a chat completion.
	Modalities []string `json:"modalities,omitempty"`
}

// StreamOptions configures streaming responses.
type StreamOptions struct {
	// IncludeUsage requests a final chunk carrying token usage.
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// Message represents a single message in a conversation.
// The same type is used for request messages and response choices.
type Message struct {
	// Role is the author of the message
	// ("system", "developer", "user", "assistant", or "tool").
	Role string `json:"role"`

	// Content is the text content of the message.
	// Can be a string or an array of content parts (for multimodal models).
	Content interface{} `json:"content"`

	// ReasoningContent carries model reasoning/thinking text on responses
	// from providers that expose it. Never set on requests.
	ReasoningContent string `json:"reasoning_content,omitempty"`

	// Name is the name of the author (optional, also used for tool results).
	Name string `json:"name,omitempty"`

	// ToolCalls is a list of tool calls made by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is the ID of the tool call this message is responding to
	// (for role "tool").
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Images carries inline images generated by the model, for providers
	// that can return image parts from a chat completion.
	Images []MessageImage `json:"images,omitempty"`
}

// MessageImage is an inline image attached to an assistant message.
// Generated images carry base64 payloads in B64JSON; ImageURL is kept
// for providers that return a reference instead.
type MessageImage struct {
	B64JSON  string         `json:"b64_json,omitempty"`
	ImageURL *MessageImgURL `json:"image_url,omitempty"`
}

// MessageImgURL holds an image referenced by URL.
type MessageImgURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message content array.
type ContentPart struct {
	// Type is "text", "image_url", or "file".
	Type string `json:"type"`

	// Text is set when Type is "text".
	Text string `json:"text,omitempty"`

	// ImageURL is set when Type is "image_url".
	ImageURL *ImageURLPart `json:"image_url,omitempty"`

	// File is set when Type is "file".
	File *FilePart `json:"file,omitempty"`
}

// ImageURLPart references an image by URL or data URL.
type ImageURLPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// FilePart references a file by id, data URL, or inline data.
type FilePart struct {
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data,omitempty"`
}

// TextContent returns the message content as plain text. Multimodal
// content arrays are flattened to their text parts joined by newlines.
func (m *Message) TextContent() string {
	switch c := m.Content.(type) {
	case string:
		return c
	case nil:
		return ""
	default:
		parts, err := m.ContentParts()
		if err != nil {
			return ""
		}
		text := ""
		for _, p := range parts {
			if p.Type == "text" {
				if text != "" {
					text += "\n"
				}
				text += p.Text
			}
		}
		return text
	}
}

// ContentParts decodes the content field into a list of typed parts.
// String content is returned as a single text part.
func (m *Message) ContentParts() ([]ContentPart, error) {
	switch c := m.Content.(type) {
	case nil:
		return nil, nil
	case string:
		return []ContentPart{{Type: "text", Text: c}}, nil
	default:
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
		var parts []ContentPart
		if err := json.Unmarshal(raw, &parts); err != nil {
			return nil, fmt.Errorf("decode content parts: %w", err)
		}
		return parts, nil
	}
}

// Tool represents a function/tool that the model can call.
type Tool struct {
	// Type is always "function" for function calling.
	Type string `json:"type"`

	// Function describes the function to call.
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a function that can be called by the model.
type FunctionDefinition struct {
	// Name is the name of the function to call.
	Name string `json:"name"`

	// Description explains what the function does.
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters.
	Parameters map[string]interface{} `json:"parameters,omitempty"`

	// Strict requests strict schema adherence (OpenAI structured outputs).
	Strict *bool `json:"strict,omitempty"`
}

// ToolCall represents a function call made by the model.
type ToolCall struct {
	// ID is a unique identifier for the tool call.
	ID string `json:"id"`

	// Type is always "function" for function calling.
	Type string `json:"type"`

	// Function contains the function name and arguments.
	Function FunctionCall `json:"function"`
}

// FunctionCall represents the function name and arguments.
type FunctionCall struct {
	// Name is the name of the function to call.
	Name string `json:"name"`

	// Arguments is a JSON string containing the function arguments.
	Arguments string `json:"arguments"`
}

// ResponseFormat specifies the format of the model's output.
type ResponseFormat struct {
	// Type is "text", "json_object", or "json_schema".
	Type string `json:"type"`

	// JSONSchema is required when Type is "json_schema".
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat describes a structured-output JSON schema.
type JSONSchemaFormat struct {
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Schema      map[string]interface{} `json:"schema"`
	Strict      *bool                  `json:"strict,omitempty"`
}

// StopSequences normalizes the stop field into a slice. The OpenAI API
// accepts either a single string or an array of up to 4 strings.
func (r *ChatCompletionRequest) StopSequences() []string {
	switch s := r.Stop.(type) {
	case nil:
		return nil
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, v := range s {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// MaxOutputTokens resolves the effective completion token limit.
// max_completion_tokens takes precedence over the legacy max_tokens.
func (r *ChatCompletionRequest) MaxOutputTokens() *int {
	if r.MaxCompletionTokens != nil {
		return r.MaxCompletionTokens
	}
	return r.MaxTokens
}

// Validate validates the chat completion request.
// It checks that required fields are present and values are within
// acceptable ranges.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 2.0) {
		return &ValidationError{
			Field:   "temperature",
			Message: "temperature must be between 0.0 and 2.0",
		}
	}

	if r.TopP != nil && (*r.TopP < 0.0 || *r.TopP > 1.0) {
		return &ValidationError{
			Field:   "top_p",
			Message: "top_p must be between 0.0 and 1.0",
		}
	}

	if mt := r.MaxOutputTokens(); mt != nil && *mt < 1 {
		return &ValidationError{
			Field:   "max_tokens",
			Message: "max_tokens must be greater than 0",
		}
	}

	if r.N != nil && *r.N < 1 {
		return &ValidationError{
			Field:   "n",
			Message: "n must be greater than 0",
		}
	}

	if len(r.StopSequences()) > 4 {
		return &ValidationError{
			Field:   "stop",
			Message: "stop sequences must not exceed 4",
		}
	}

	if r.PresencePenalty != nil && (*r.PresencePenalty < -2.0 || *r.PresencePenalty > 2.0) {
		return &ValidationError{
			Field:   "presence_penalty",
			Message: "presence_penalty must be between -2.0 and 2.0",
		}
	}

	if r.FrequencyPenalty != nil && (*r.FrequencyPenalty < -2.0 || *r.FrequencyPenalty > 2.0) {
		return &ValidationError{
			Field:   "frequency_penalty",
			Message: "frequency_penalty must be between -2.0 and 2.0",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}

		if msg.Content == nil && len(msg.ToolCalls) == 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "message content is required when no tool_calls present",
			}
		}
	}

	if r.ResponseFormat != nil && r.ResponseFormat.Type == "json_schema" {
		if r.ResponseFormat.JSONSchema == nil || r.ResponseFormat.JSONSchema.Schema == nil {
			return &ValidationError{
				Field:   "response_format.json_schema",
				Message: "json_schema response format requires a schema",
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
