package health

import (
	"auto-ai/router/pkg/routing"
)

// Health statuses reported by the checker.
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// Status is the health endpoint payload.
type Status struct {
	Status               string `json:"status"`
	CredentialsAvailable int    `json:"credentials_available"`
	TotalCredentials     int    `json:"total_credentials"`
	CredentialsBanned    int    `json:"credentials_banned"`
}

// Healthy reports whether at least one credential can serve traffic.
func (s Status) Healthy() bool {
	return s.CredentialsAvailable > 0
}

// StatsFunc supplies the current credential pool stats.
type StatsFunc func() routing.Stats

// Checker derives the health status from the router's pool stats.
type Checker struct {
	stats StatsFunc
}

// New creates a checker over the given stats source.
func New(stats StatsFunc) *Checker {
	return &Checker{stats: stats}
}

// Check returns the current health status. The pool is degraded when
// some credentials are banned, and unavailable when none can serve.
func (c *Checker) Check() Status {
	stats := c.stats()

	status := StatusOK
	switch {
	case stats.CredentialsAvailable == 0:
		status = StatusUnavailable
	case stats.CredentialsBanned > 0:
		status = StatusDegraded
	}

	return Status{
		Status:               status,
		CredentialsAvailable: stats.CredentialsAvailable,
		TotalCredentials:     stats.TotalCredentials,
		CredentialsBanned:    stats.CredentialsBanned,
	}
}
