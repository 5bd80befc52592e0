package vertex

import (
	"encoding/json"
	"strings"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// streamState translates a streamGenerateContent chunk sequence into
// OpenAI chunks. Unlike the OpenAI protocol, each native chunk carries a
// complete functionCall rather than argument fragments, so every tool
// call is emitted as one self-contained chunk with a synthesized id.
type streamState struct {
	id      string
	model   string
	created int64

	sentRole  bool
	toolIdx   int
	sawCalls  bool
	finish    string
	lastUsage *UsageMetadata
}

func newStreamState(model string) *streamState {
	return &streamState{
		id:      providers.NewCompletionID(),
		model:   model,
		created: time.Now().Unix(),
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

// translate converts one native streaming chunk into zero or more OpenAI
// chunks. Text parts within a native chunk collapse into a single content
// delta. The native protocol has no terminal sentinel; the caller emits
// the final chunk via finalChunk after the stream ends.
func (s *streamState) translate(resp *GenerateResponse) []*types.ChatCompletionStreamChunk {
	if resp.UsageMetadata != nil {
		s.lastUsage = resp.UsageMetadata
	}

	var out []*types.ChatCompletionStreamChunk
	emit := func(delta types.Delta) {
		if !s.sentRole {
			delta.Role = "assistant"
			s.sentRole = true
		}
		out = append(out, s.chunk(delta, nil, nil))
	}

	for _, candidate := range resp.Candidates {
		if candidate.Index != 0 {
			continue
		}

		var text strings.Builder
		flushText := func() {
			if text.Len() > 0 {
				emit(types.Delta{Content: text.String()})
				text.Reset()
			}
		}

		for _, part := range candidate.Content.Parts {
			if part.FunctionCall == nil && !part.Thought {
				text.WriteString(part.Text)
				continue
			}
			flushText()
			if delta := s.partDelta(part); delta != nil {
				emit(*delta)
			}
		}
		flushText()

		if candidate.FinishReason != "" {
			s.finishFromCandidate(candidate.FinishReason)
		}
	}
	return out
}

// partDelta builds the delta for a tool-call or thought part. Plain text
// parts are folded by the caller instead.
func (s *streamState) partDelta(part Part) *types.Delta {
	switch {
	case part.FunctionCall != nil:
		args := "{}"
		if len(part.FunctionCall.Args) > 0 {
			if raw, err := json.Marshal(part.FunctionCall.Args); err == nil {
				args = string(raw)
			}
		}
		delta := &types.Delta{
			ToolCalls: []types.ToolCallDelta{{
				Index: s.toolIdx,
				ID:    providers.NewToolCallID(),
				Type:  "function",
				Function: types.FunctionCallDelta{
					Name:      part.FunctionCall.Name,
					Arguments: args,
				},
			}},
		}
		s.toolIdx++
		s.sawCalls = true
		return delta

	case part.Thought:
		if part.Text == "" {
			return nil
		}
		return &types.Delta{ReasoningContent: part.Text}

	default:
		return nil
	}
}

func (s *streamState) finishFromCandidate(reason string) {
	s.finish = mapFinishReason(reason)
}

// finalChunk builds the terminal chunk carrying the finish reason and
// usage. Any tool call in the stream forces finish_reason "tool_calls".
func (s *streamState) finalChunk() *types.ChatCompletionStreamChunk {
	finish := s.finish
	if finish == "" {
		finish = "stop"
	}
	if s.sawCalls {
		finish = "tool_calls"
	}

	var usage *types.Usage
	if s.lastUsage != nil {
		u := NormalizeUsage(s.lastUsage)
		usage = &u
	}
	return s.chunk(types.Delta{}, &finish, usage)
}
