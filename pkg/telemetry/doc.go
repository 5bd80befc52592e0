// Package telemetry groups the observability subsystems of the gateway:
// structured logging with secret redaction, Prometheus metrics, and the
// health endpoint backing data.
package telemetry
