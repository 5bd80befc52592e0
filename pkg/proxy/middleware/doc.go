// Package middleware provides the HTTP middleware chain for the
// gateway: request ids, master-key authentication, access logging,
// panic recovery, and CORS.
package middleware
