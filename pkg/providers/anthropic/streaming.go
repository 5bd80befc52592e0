package anthropic

import (
	"encoding/json"
	"fmt"
	"time"

	"auto-ai/router/pkg/gateway/types"
)

// streamState tracks the Messages API event machine while translating it
// into OpenAI chunks.
type streamState struct {
	id          string
	model       string
	created     int64
	inputTokens int

	// toolIdx is the OpenAI-side index of the tool call currently being
	// streamed. It advances on content_block_stop of a tool_use block.
	toolIdx     int
	toolBlocks  map[int]bool
	finish      string
	usageCached int
}

func newStreamState(model string) *streamState {
	return &streamState{
		model:      model,
		created:    time.Now().Unix(),
		toolBlocks: make(map[int]bool),
	}
}

func (s *streamState) chunk(delta types.Delta, finish *string, usage *types.Usage) *types.ChatCompletionStreamChunk {
	return &types.ChatCompletionStreamChunk{
		ID:      s.id,
		Object:  "chat.completion.chunk",
		Created: s.created,
		Model:   s.model,
		Choices: []types.StreamChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
		Usage: usage,
	}
}

// translate converts one Messages API stream event into an OpenAI chunk.
// A nil chunk means the event produces no client-visible output; done is
// true on message_stop.
func (s *streamState) translate(event *StreamEvent) (chunk *types.ChatCompletionStreamChunk, done bool, err error) {
	switch event.Type {
	case "message_start":
		if event.Message == nil {
			return nil, false, fmt.Errorf("message_start without message")
		}
		s.id = event.Message.ID
		s.inputTokens = event.Message.Usage.InputTokens
		s.usageCached = event.Message.Usage.CacheReadInputTokens
		return s.chunk(types.Delta{Role: "assistant"}, nil, nil), false, nil

	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			s.toolBlocks[event.Index] = true
			return s.chunk(types.Delta{
				ToolCalls: []types.ToolCallDelta{{
					Index: s.toolIdx,
					ID:    event.ContentBlock.ID,
					Type:  "function",
					Function: types.FunctionCallDelta{
						Name:      event.ContentBlock.Name,
						Arguments: "",
					},
				}},
			}, nil, nil), false, nil
		}
		return nil, false, nil

	case "content_block_delta":
		if event.Delta == nil {
			return nil, false, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return s.chunk(types.Delta{Content: event.Delta.Text}, nil, nil), false, nil
		case "thinking_delta":
			return s.chunk(types.Delta{ReasoningContent: event.Delta.Thinking}, nil, nil), false, nil
		case "input_json_delta":
			return s.chunk(types.Delta{
				ToolCalls: []types.ToolCallDelta{{
					Index:    s.toolIdx,
					Function: types.FunctionCallDelta{Arguments: event.Delta.PartialJSON},
				}},
			}, nil, nil), false, nil
		}
		return nil, false, nil

	case "content_block_stop":
		if s.toolBlocks[event.Index] {
			s.toolIdx++
		}
		return nil, false, nil

	case "message_delta":
		if event.Delta != nil && event.Delta.StopReason != "" {
			s.finish = mapStopReason(event.Delta.StopReason)
		}
		outputTokens := 0
		if event.Usage != nil {
			outputTokens = event.Usage.OutputTokens
		}
		usage := &types.Usage{
			PromptTokens:     s.inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      s.inputTokens + outputTokens,
		}
		if s.usageCached > 0 {
			usage.PromptTokensDetails = &types.PromptTokensDetails{CachedTokens: s.usageCached}
		}
		finish := s.finish
		if finish == "" {
			finish = "stop"
		}
		return s.chunk(types.Delta{}, &finish, usage), false, nil

	case "message_stop":
		return nil, true, nil

	case "ping", "error":
		if event.Type == "error" {
			raw, _ := json.Marshal(event)
			return nil, false, fmt.Errorf("upstream stream error: %s", raw)
		}
		return nil, false, nil

	default:
		// Unknown event types are skipped for forward compatibility.
		return nil, false, nil
	}
}
