package routing

import "errors"

var (
	// ErrUnknownModel is returned when no model binding exists for the
	// requested model id.
	ErrUnknownModel = errors.New("unknown model")

	// ErrNoCredentials is returned when no credential is eligible for the
	// model, either because none is configured or all are banned.
	ErrNoCredentials = errors.New("no credentials available")

	// ErrRateLimited is returned when eligible credentials exist but every
	// one of them is at its RPM or TPM limit.
	ErrRateLimited = errors.New("all credentials rate limited")
)
