package vertex

import (
	"encoding/json"
	"strings"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// truncatedPlaceholder stands in for content when the model hit the token
// limit before producing any parts.
const truncatedPlaceholder = "[Response truncated due to max tokens limit]"

// ToOpenAI converts a generateContent response into an OpenAI chat
// completion. Tool calls receive synthesized ids, since the native
// protocol has none.
func ToOpenAI(resp *GenerateResponse, model string) *types.ChatCompletionResponse {
	out := &types.ChatCompletionResponse{
		ID:      providers.NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Usage:   NormalizeUsage(resp.UsageMetadata),
	}

	for i, candidate := range resp.Candidates {
		msg, hasToolCalls := foldParts(candidate.Content.Parts)

		finish := mapFinishReason(candidate.FinishReason)
		if hasToolCalls {
			finish = "tool_calls"
		}

		if msg.Content == "" && len(msg.ToolCalls) == 0 && candidate.FinishReason == "MAX_TOKENS" {
			msg.Content = truncatedPlaceholder
		}

		out.Choices = append(out.Choices, types.Choice{
			Index:        i,
			Message:      msg,
			FinishReason: finish,
		})
	}

	return out
}

// foldParts collapses candidate parts into one assistant message.
func foldParts(parts []Part) (msg types.Message, hasToolCalls bool) {
	msg.Role = "assistant"

	var text strings.Builder
	var reasoning strings.Builder
	for _, part := range parts {
		switch {
		case part.FunctionCall != nil:
			args := "{}"
			if len(part.FunctionCall.Args) > 0 {
				if raw, err := json.Marshal(part.FunctionCall.Args); err == nil {
					args = string(raw)
				}
			}
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:   providers.NewToolCallID(),
				Type: "function",
				Function: types.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: args,
				},
			})
			hasToolCalls = true

		case part.InlineData != nil:
			msg.Images = append(msg.Images, types.MessageImage{
				B64JSON: part.InlineData.Data,
			})

		case part.Thought:
			reasoning.WriteString(part.Text)

		default:
			text.WriteString(part.Text)
		}
	}

	msg.Content = text.String()
	msg.ReasoningContent = reasoning.String()
	return msg, hasToolCalls
}

// mapFinishReason maps native finish reasons onto OpenAI finish reasons.
func mapFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "PROHIBITED_CONTENT", "BLOCKLIST":
		return "content_filter"
	case "TOOL_CALL":
		return "tool_calls"
	default:
		return "stop"
	}
}

// NormalizeUsage converts native usage metadata into OpenAI usage.
// Prompt tokens include tool-use prompt tokens; completion tokens include
// thought tokens. The total is always computed from the parts, ignoring
// the upstream totalTokenCount.
func NormalizeUsage(u *UsageMetadata) types.Usage {
	if u == nil {
		return types.Usage{}
	}

	prompt := u.PromptTokenCount + u.ToolUsePromptTokenCount
	completion := u.CandidatesTokenCount + u.ThoughtsTokenCount

	out := types.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
	if u.ThoughtsTokenCount > 0 {
		out.CompletionTokensDetails = &types.CompletionTokensDetails{
			ReasoningTokens: u.ThoughtsTokenCount,
		}
	}
	if u.CachedContentTokenCount > 0 {
		out.PromptTokensDetails = &types.PromptTokensDetails{
			CachedTokens: u.CachedContentTokenCount,
		}
	}
	return out
}
