// Package metrics exposes the gateway's Prometheus metrics.
//
// All metrics share the auto_ai_router_ prefix. The Collector is the
// single registration point: the proxy records request outcomes, the
// routing layer reports ban and unban events through the BanListener
// interface, and the rate gauges are refreshed from the limiter's
// sliding windows.
package metrics
