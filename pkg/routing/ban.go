package routing

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"auto-ai/router/pkg/providers"
)

// Rule is a fail2ban rule for one error code. A credential+model pair is
// banned once it accumulates MaxAttempts consecutive failures with the
// code; BanDuration zero means the ban is permanent.
type Rule struct {
	Code        string
	MaxAttempts int
	BanDuration time.Duration
}

// Error codes used for rule matching. Numeric HTTP statuses match
// exactly; "5xx" matches any server error; network failures and timeouts
// share the server-error treatment unless a dedicated rule exists.
const (
	CodeNetwork = "network"
	CodeTimeout = "timeout"
	Code5xx     = "5xx"
)

const (
	authBanDuration  = time.Hour
	defaultBanBase   = 30 * time.Second
	maxBackoffBan    = time.Hour
	serverErrorLimit = 3
)

// DefaultRules returns the built-in ban policy: auth failures ban
// immediately for an hour, rate limits ban for the Retry-After window
// (30s fallback), server errors and network failures ban after three
// consecutive failures with exponential backoff.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "401", MaxAttempts: 1, BanDuration: authBanDuration},
		{Code: "403", MaxAttempts: 1, BanDuration: authBanDuration},
		{Code: "429", MaxAttempts: 1, BanDuration: defaultBanBase},
		{Code: Code5xx, MaxAttempts: serverErrorLimit, BanDuration: defaultBanBase},
		{Code: CodeNetwork, MaxAttempts: serverErrorLimit, BanDuration: defaultBanBase},
		{Code: CodeTimeout, MaxAttempts: serverErrorLimit, BanDuration: defaultBanBase},
	}
}

// BanListener receives ban lifecycle events, typically for metrics.
type BanListener interface {
	CredentialBanned(credential, code string)
	CredentialUnbanned(credential string)
}

// BanState is the serializable state of one credential+model key, used
// for persistence across restarts.
type BanState struct {
	Credential  string
	Model       string
	Code        string
	Failures    int
	BannedUntil time.Time
	Permanent   bool
}

type banEntry struct {
	code        string
	failures    int
	bannedUntil time.Time
	permanent   bool
}

func (e *banEntry) banned(now time.Time) bool {
	return e.permanent || now.Before(e.bannedUntil)
}

// Registry tracks failures and bans per credential+model pair.
type Registry struct {
	mu       sync.Mutex
	rules    map[string]Rule
	entries  map[banKey]*banEntry
	listener BanListener
	logger   *slog.Logger
	now      func() time.Time
}

type banKey struct {
	credential string
	model      string
}

// NewRegistry creates a ban registry. Explicit rules override the
// defaults code by code; a nil listener disables event reporting.
func NewRegistry(rules []Rule, listener BanListener, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	merged := make(map[string]Rule)
	for _, r := range DefaultRules() {
		merged[r.Code] = r
	}
	for _, r := range rules {
		if r.MaxAttempts < 1 {
			r.MaxAttempts = 1
		}
		merged[r.Code] = r
	}
	return &Registry{
		rules:    merged,
		entries:  make(map[banKey]*banEntry),
		listener: listener,
		logger:   logger,
		now:      time.Now,
	}
}

// ErrorCode classifies an upstream failure into a rule-matching code.
func ErrorCode(err error) string {
	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return CodeTimeout
	}
	if status := providers.StatusCode(err); status > 0 {
		return strconv.Itoa(status)
	}
	return CodeNetwork
}

// ruleFor resolves the rule for a code, falling back to the 5xx class
// for server errors and to the network rule otherwise.
func (r *Registry) ruleFor(code string) Rule {
	if rule, ok := r.rules[code]; ok {
		return rule
	}
	if status, err := strconv.Atoi(code); err == nil && status >= 500 {
		if rule, ok := r.rules[Code5xx]; ok {
			return rule
		}
	}
	if rule, ok := r.rules[CodeNetwork]; ok {
		return rule
	}
	return Rule{Code: code, MaxAttempts: serverErrorLimit, BanDuration: defaultBanBase}
}

// RecordFailure registers an upstream failure for a credential+model pair
// and applies the matching rule. It returns true when the pair is now
// banned.
func (r *Registry) RecordFailure(credential, model string, err error) bool {
	code := ErrorCode(err)
	rule := r.ruleFor(code)

	r.mu.Lock()
	key := banKey{credential, model}
	entry := r.entries[key]
	if entry == nil || entry.code != code {
		entry = &banEntry{code: code}
		r.entries[key] = entry
	}
	entry.failures++

	if entry.failures < rule.MaxAttempts {
		r.mu.Unlock()
		return false
	}

	if rule.BanDuration == 0 {
		entry.permanent = true
	} else {
		entry.bannedUntil = r.now().Add(r.banDuration(rule, entry, err))
	}
	until := entry.bannedUntil
	permanent := entry.permanent
	r.mu.Unlock()

	r.logger.Warn("credential banned",
		"credential", credential,
		"model", model,
		"error_code", code,
		"banned_until", until,
		"permanent", permanent,
	)
	if r.listener != nil {
		r.listener.CredentialBanned(credential, code)
	}
	return true
}

// banDuration computes the effective ban for a tripped rule. 429 bans
// honor the upstream Retry-After when present; repeated failures past the
// threshold back off exponentially, capped at an hour.
func (r *Registry) banDuration(rule Rule, entry *banEntry, err error) time.Duration {
	if rule.Code == "429" || entry.code == "429" {
		var rateErr *providers.RateLimitError
		if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
			return rateErr.RetryAfter
		}
	}

	d := rule.BanDuration
	for extra := entry.failures - rule.MaxAttempts; extra > 0; extra-- {
		d *= 2
		if d >= maxBackoffBan {
			return maxBackoffBan
		}
	}
	return d
}

// RecordSuccess clears the failure counter and any active ban for the
// pair. A 2xx response proves the credential works again.
func (r *Registry) RecordSuccess(credential, model string) {
	r.mu.Lock()
	key := banKey{credential, model}
	entry, ok := r.entries[key]
	wasBanned := ok && entry.banned(r.now())
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	if wasBanned && r.listener != nil {
		r.listener.CredentialUnbanned(credential)
	}
}

// Banned reports whether the pair is currently banned. Expired bans are
// cleared lazily here so correctness does not depend on sweep latency.
func (r *Registry) Banned(credential, model string) bool {
	r.mu.Lock()
	key := banKey{credential, model}
	entry, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return false
	}

	now := r.now()
	if entry.banned(now) {
		r.mu.Unlock()
		return true
	}

	expired := !entry.bannedUntil.IsZero()
	if expired {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	if expired && r.listener != nil {
		r.listener.CredentialUnbanned(credential)
	}
	return false
}

// Sweep clears expired bans and returns how many were lifted.
func (r *Registry) Sweep() int {
	now := r.now()
	var unbanned []string

	r.mu.Lock()
	for key, entry := range r.entries {
		if entry.bannedUntil.IsZero() || entry.permanent {
			continue
		}
		if !now.Before(entry.bannedUntil) {
			delete(r.entries, key)
			unbanned = append(unbanned, key.credential)
		}
	}
	r.mu.Unlock()

	if r.listener != nil {
		for _, credential := range unbanned {
			r.listener.CredentialUnbanned(credential)
		}
	}
	return len(unbanned)
}

// BannedCredentials returns the distinct credentials with at least one
// active ban.
func (r *Registry) BannedCredentials() []string {
	now := r.now()
	seen := make(map[string]bool)

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for key, entry := range r.entries {
		if !entry.banned(now) || seen[key.credential] {
			continue
		}
		seen[key.credential] = true
		out = append(out, key.credential)
	}
	return out
}

// Snapshot returns the active ban state for persistence.
func (r *Registry) Snapshot() []BanState {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]BanState, 0, len(r.entries))
	for key, entry := range r.entries {
		if !entry.banned(now) {
			continue
		}
		out = append(out, BanState{
			Credential:  key.credential,
			Model:       key.model,
			Code:        entry.code,
			Failures:    entry.failures,
			BannedUntil: entry.bannedUntil,
			Permanent:   entry.permanent,
		})
	}
	return out
}

// Restore loads persisted ban state, dropping entries that expired while
// the process was down.
func (r *Registry) Restore(states []BanState) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range states {
		if !s.Permanent && !now.Before(s.BannedUntil) {
			continue
		}
		r.entries[banKey{s.Credential, s.Model}] = &banEntry{
			code:        s.Code,
			failures:    s.Failures,
			bannedUntil: s.BannedUntil,
			permanent:   s.Permanent,
		}
	}
}
