// Package types defines the OpenAI-compatible wire types for the gateway.
//
// This package contains all data transfer objects (DTOs) used for HTTP
// request/response handling. The types match the OpenAI API format exactly,
// ensuring compatibility with existing OpenAI SDKs and tools regardless of
// which provider actually serves the request.
//
// # Core Types
//
// Request types:
//   - ChatCompletionRequest: Main request body for /v1/chat/completions
//   - Message: Individual message in conversation history
//   - Tool: Function/tool definition for function calling
//   - EmbeddingRequest: Request body for /v1/embeddings
//   - ImageGenerationRequest: Request body for /v1/images/generations
//
// Response types:
//   - ChatCompletionResponse: Non-streaming response format
//   - ChatCompletionStreamChunk: Streaming response chunk (SSE)
//   - Choice, Delta: Completion choices and incremental stream content
//   - Usage: Normalized token usage statistics
//   - EmbeddingResponse, ImageGenerationResponse, ModelList
//
// Error types:
//   - ErrorResponse: OpenAI-compatible error response
//   - ErrorDetail: Error details with type, message, param, code
//
// # OpenAI Compatibility
//
// All types match the OpenAI API specification, allowing clients to use
// standard OpenAI SDKs without modification:
//
//	from openai import OpenAI
//	client = OpenAI(base_url="http://localhost:8080/v1")
//	response = client.chat.completions.create(
//	    model="claude-sonnet-4",
//	    messages=[{"role": "user", "content": "Hello!"}]
//	)
//
// # Validation
//
// Request types include validation logic to ensure required fields are
// present and values are within acceptable ranges. Validation errors are
// returned in OpenAI error format.
package types
