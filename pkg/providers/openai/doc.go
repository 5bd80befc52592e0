// Package openai implements the provider adapter for OpenAI and
// OpenAI-compatible endpoints.
//
// Since the gateway speaks the OpenAI wire format natively, this adapter is
// mostly a passthrough: requests are forwarded verbatim with the
// credential's API key, and responses are decoded into the gateway types
// unchanged. Streaming chunks are relayed as-is, with usage captured from
// the final chunk when the upstream includes it.
package openai
