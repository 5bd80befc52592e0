// Package anthropic implements the provider adapter for the Anthropic
// Messages API.
//
// The adapter translates in both directions:
//
//   - OpenAI chat completion requests become Messages API requests:
//     system/developer messages fold into the top-level system field,
//     tool definitions and tool_choice map to their Anthropic forms, tool
//     result messages become tool_result content blocks, and multimodal
//     parts become image/document source blocks. max_tokens is mandatory
//     upstream and defaults to 4096 when the client omits it.
//
//   - Messages API responses become OpenAI chat completions: text blocks
//     concatenate into content, thinking blocks surface as
//     reasoning_content, tool_use blocks become tool_calls with their
//     upstream ids passed through unchanged, and stop_reason maps onto
//     finish_reason.
//
// Streaming translates the Messages API event protocol (message_start,
// content_block_start/delta/stop, message_delta, message_stop) into
// OpenAI chat.completion.chunk events, ending with usage on the final
// chunk.
package anthropic
