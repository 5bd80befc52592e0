package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"auto-ai/router/pkg/routing"
)

// Config configures the metrics collector.
type Config struct {
	// Enabled turns metric recording on. When false all record methods
	// are no-ops.
	Enabled bool

	// Namespace is the metric name prefix. Default "auto_ai".
	Namespace string

	// Subsystem is the metric name subsystem. Default "router".
	Subsystem string

	// DurationBuckets are the request duration histogram buckets in
	// seconds. The defaults cover interactive chat through long batch
	// completions.
	DurationBuckets []float64
}

// Collector registers and records all gateway metrics.
//
// It implements routing.BanListener so the ban registry can report
// credential ban lifecycle events directly.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec

	credentialRPM    *prometheus.GaugeVec
	credentialTPM    *prometheus.GaugeVec
	credentialBanned *prometheus.GaugeVec
	credentialErrors *prometheus.CounterVec

	modelRPM *prometheus.GaugeVec
	modelTPM *prometheus.GaugeVec

	selectionRejected *prometheus.CounterVec
	banEvents         *prometheus.CounterVec
	unbanEvents       *prometheus.CounterVec

	cardinality *CardinalityLimiter
}

var _ routing.BanListener = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics. A nil
// registry gets a fresh one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "auto_ai"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "router"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = []float64{1, 10, 30, 60, 120, 240, 600}
	}

	c := &Collector{
		config:      cfg,
		registry:    registry,
		cardinality: NewCardinalityLimiter(10000),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of gateway requests",
			},
			[]string{"credential", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_duration_seconds",
				Help:      "End to end request duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"credential", "endpoint"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Normalized tokens consumed upstream per credential and model",
			},
			[]string{"credential", "model", "type"},
		),
		credentialRPM: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_rpm_current",
				Help:      "Requests counted in the current one minute window per credential",
			},
			[]string{"credential"},
		),
		credentialTPM: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_tpm_current",
				Help:      "Tokens counted in the current one minute window per credential",
			},
			[]string{"credential"},
		),
		credentialBanned: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_banned",
				Help:      "Whether the credential currently has an active ban (1) or not (0)",
			},
			[]string{"credential"},
		),
		credentialErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_errors_total",
				Help:      "Upstream errors per credential and error code",
			},
			[]string{"credential", "error_code"},
		),
		modelRPM: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_rpm_current",
				Help:      "Requests counted in the current one minute window per model",
			},
			[]string{"model"},
		),
		modelTPM: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_tpm_current",
				Help:      "Tokens counted in the current one minute window per model",
			},
			[]string{"model"},
		),
		selectionRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_selection_rejected_total",
				Help:      "Requests rejected before any upstream attempt, by reason",
			},
			[]string{"reason"},
		),
		banEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_ban_events_total",
				Help:      "Credential ban events by error code",
			},
			[]string{"credential", "error_code"},
		),
		unbanEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "credential_unban_events_total",
				Help:      "Credential unban events",
			},
			[]string{"credential"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.tokensTotal,
		c.credentialRPM,
		c.credentialTPM,
		c.credentialBanned,
		c.credentialErrors,
		c.modelRPM,
		c.modelTPM,
		c.selectionRejected,
		c.banEvents,
		c.unbanEvents,
	)

	return c
}

// RecordRequest records a completed request.
//
// The credential label is the selected credential name, or "none" when
// the request never reached selection. The endpoint label is the route
// path, and status is the HTTP status returned to the client.
func (c *Collector) RecordRequest(credential, endpoint string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	statusLabel := strconv.Itoa(status)
	labelSet := fmt.Sprintf("request:%s:%s:%s", credential, endpoint, statusLabel)
	if !c.cardinality.Allow(labelSet) {
		// Fold into "other" to keep cardinality bounded.
		credential = "other"
	}

	c.requestsTotal.WithLabelValues(credential, endpoint, statusLabel).Inc()
	c.requestDuration.WithLabelValues(credential, endpoint).Observe(duration.Seconds())
}

// RecordTokens counts normalized token usage from a successful upstream
// response. The type label is "prompt" or "completion".
func (c *Collector) RecordTokens(credential, model string, prompt, completion int) {
	if !c.config.Enabled {
		return
	}
	if prompt > 0 {
		c.tokensTotal.WithLabelValues(credential, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		c.tokensTotal.WithLabelValues(credential, model, "completion").Add(float64(completion))
	}
}

// RecordCredentialError counts an upstream failure for a credential.
// The code matches the fail2ban error codes ("401", "429", "timeout",
// "network", and so on).
func (c *Collector) RecordCredentialError(credential, code string) {
	if !c.config.Enabled {
		return
	}
	c.credentialErrors.WithLabelValues(credential, code).Inc()
}

// Selection rejection reasons.
const (
	ReasonUnknownModel  = "unknown_model"
	ReasonNoCredentials = "no_credentials"
	ReasonRateLimited   = "rate_limited"
)

// RecordSelectionRejected counts a request rejected before any upstream
// attempt was made.
func (c *Collector) RecordSelectionRejected(reason string) {
	if !c.config.Enabled {
		return
	}
	c.selectionRejected.WithLabelValues(reason).Inc()
}

// CredentialBanned implements routing.BanListener.
func (c *Collector) CredentialBanned(credential, code string) {
	if !c.config.Enabled {
		return
	}
	c.banEvents.WithLabelValues(credential, code).Inc()
	c.credentialBanned.WithLabelValues(credential).Set(1)
}

// CredentialUnbanned implements routing.BanListener.
func (c *Collector) CredentialUnbanned(credential string) {
	if !c.config.Enabled {
		return
	}
	c.unbanEvents.WithLabelValues(credential).Inc()
	c.credentialBanned.WithLabelValues(credential).Set(0)
}

// SetCredentialRates refreshes the per-credential window gauges from the
// limiter's current counts.
func (c *Collector) SetCredentialRates(credential string, requests, tokens int64) {
	if !c.config.Enabled {
		return
	}
	c.credentialRPM.WithLabelValues(credential).Set(float64(requests))
	c.credentialTPM.WithLabelValues(credential).Set(float64(tokens))
}

// SetModelRates refreshes the per-model window gauges.
func (c *Collector) SetModelRates(model string, requests, tokens int64) {
	if !c.config.Enabled {
		return
	}
	c.modelRPM.WithLabelValues(model).Set(float64(requests))
	c.modelTPM.WithLabelValues(model).Set(float64(tokens))
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the number of unique label sets so a
// misbehaving client cannot blow up metric memory.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter with the given maximum number
// of unique label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether the label set may be recorded as-is. Known sets
// are always allowed; new sets are allowed until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
