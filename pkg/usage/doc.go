// Package usage normalizes provider token accounting and records
// per-request usage to a local spend log.
//
// Every response leaving the gateway carries OpenAI-shaped usage where
// total_tokens is the computed sum of prompt and completion tokens; a
// provider-reported total that disagrees is discarded with a warning.
// Normalized usage also feeds the router's TPM windows.
//
// The spend log (subpackage store) writes asynchronously in batches so
// accounting never blocks the request path.
package usage
