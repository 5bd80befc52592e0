// Package server assembles the gateway from configuration: the provider
// adapters, the credential router, the dispatcher, the background jobs
// and the HTTP listener with its middleware chain. It owns the process
// lifecycle, including config hot reload and graceful shutdown.
//
// # Routes
//
//   - POST /v1/chat/completions - chat completions, streaming and not
//   - POST /v1/embeddings - embeddings
//   - POST /v1/images/generations - image generation
//   - GET /v1/models - the configured model catalog
//   - GET /health - credential pool health, 503 when no credential can serve
//   - GET /metrics - Prometheus exposition (when enabled)
//
// The /v1 routes require the master key; health and metrics do not.
//
// # Shutdown
//
// On SIGINT/SIGTERM or context cancellation the listener drains for the
// configured shutdown timeout, then the background jobs stop, the usage
// queue flushes, the final ban snapshot is persisted, and the provider
// connection pools close.
package server
