// Airouter is an OpenAI-compatible gateway for multiple LLM providers.
//
// It exposes the OpenAI API surface on a single endpoint and routes each
// request to a configured upstream credential (OpenAI, Anthropic, Google
// Vertex AI or Gemini), with automatic failover, credential banning and
// per-minute rate limits.
//
// Usage:
//
//	# Start the gateway
//	airouter run --config config.yaml
//
//	# Check a configuration file
//	airouter validate --config config.yaml
//
//	# Show version information
//	airouter version
package main

func main() {
	Execute()
}
