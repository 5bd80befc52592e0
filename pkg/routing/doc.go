// Package routing selects upstream credentials for incoming requests.
//
// The router owns three pieces of shared state:
//
//   - the credential pool, a configured list of provider credentials with
//     per-credential model eligibility and RPM/TPM limits;
//   - the ban registry, which tracks per credential+model failures and
//     applies fail2ban-style rules (auth failures ban long, rate limits
//     ban for the Retry-After window, server errors ban with exponential
//     backoff after repeated failures);
//   - sliding-window rate counters for requests and tokens per credential
//     and per credential+model.
//
// Selection for a model walks the eligible credentials, skips banned and
// rate-limited ones, and returns the least recently used of the rest.
// Under a stable pool this degenerates to round-robin; the last-used
// timestamp is advanced before the credential is handed out, so two
// concurrent selections never collide while at least two credentials are
// eligible.
//
// Ban expiry is lazy (checked on every read) with a cron-driven sweep as
// backstop; the sweep also persists ban state to SQLite so permanent bans
// survive restarts.
package routing
