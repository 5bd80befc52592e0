// Package proxy implements the gateway's HTTP surface: the OpenAI
// endpoints, the request dispatcher with credential failover, and the
// SSE relay for streamed completions.
//
// The dispatcher owns retry policy. Providers perform exactly one
// upstream attempt; on a retryable failure the dispatcher records it in
// the ban registry and fails over to the next eligible credential, up
// to a total attempt budget. Streamed requests fail over only while
// nothing has been forwarded to the client.
package proxy
