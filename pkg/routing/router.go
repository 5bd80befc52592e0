package routing

import (
	"log/slog"
	"sync"
	"time"

	"auto-ai/router/pkg/providers"
)

// Credential is one configured upstream credential with its routing
// constraints. The Provider field is the live adapter for the credential.
type Credential struct {
	// Name is the unique credential name from configuration.
	Name string

	// Provider is the adapter that talks to the upstream.
	Provider providers.Provider

	// Models is the set of client-visible model ids this credential may
	// serve. Empty means any cataloged model.
	Models []string

	// RPM and TPM are credential-wide per-minute limits. Zero means no
	// limit.
	RPM int
	TPM int

	lastUsed time.Time
}

func (c *Credential) servesModel(id string) bool {
	if len(c.Models) == 0 {
		return true
	}
	for _, m := range c.Models {
		if m == id {
			return true
		}
	}
	return false
}

// LimiterKey is the per credential+model rate window key. It is
// exported for metrics gauges that read window counts off the limiter.
func LimiterKey(credential, model string) string {
	return credential + "|" + model
}

func limiterKey(credential, model string) string {
	return LimiterKey(credential, model)
}

// Router selects credentials for models. It owns the credential pool and
// coordinates the ban registry and rate limiter; both survive a pool or
// catalog swap on config reload.
type Router struct {
	mu      sync.Mutex
	creds   []*Credential
	catalog *Catalog

	bans   *Registry
	limits *Limiter
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter creates a router over the given pool and catalog.
func NewRouter(creds []*Credential, catalog *Catalog, bans *Registry, limits *Limiter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if bans == nil {
		bans = NewRegistry(nil, nil, logger)
	}
	if limits == nil {
		limits = NewLimiter()
	}
	return &Router{
		creds:   creds,
		catalog: catalog,
		bans:    bans,
		limits:  limits,
		logger:  logger,
		now:     time.Now,
	}
}

// Bans returns the ban registry.
func (r *Router) Bans() *Registry {
	return r.bans
}

// Limits returns the rate limiter.
func (r *Router) Limits() *Limiter {
	return r.limits
}

// Catalog returns the current model catalog.
func (r *Router) Catalog() *Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog
}

// Swap atomically replaces the credential pool and catalog on config
// reload. Ban and rate state is keyed by credential name and carries
// over to same-named credentials.
func (r *Router) Swap(creds []*Credential, catalog *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds = creds
	r.catalog = catalog
}

// Select picks a credential for the model. Failure modes:
//
//   - ErrUnknownModel: no binding for the model id.
//   - ErrNoCredentials: no credential is configured for the model, or
//     every configured one is banned.
//   - ErrRateLimited: healthy credentials exist but all are at their
//     RPM/TPM limit.
//
// A successful pick consumes one request from the credential's rate
// windows and advances its last-used timestamp before returning, so
// concurrent picks spread across the pool.
func (r *Router) Select(model string) (*Credential, *ModelInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.catalog.Lookup(model)
	if !ok {
		return nil, nil, ErrUnknownModel
	}

	var eligible []*Credential
	for _, cred := range r.creds {
		if cred.servesModel(model) && info.allowsCredential(cred.Name) {
			eligible = append(eligible, cred)
		}
	}
	if len(eligible) == 0 {
		return nil, nil, ErrNoCredentials
	}

	var healthy []*Credential
	for _, cred := range eligible {
		if !r.bans.Banned(cred.Name, model) {
			healthy = append(healthy, cred)
		}
	}
	if len(healthy) == 0 {
		return nil, nil, ErrNoCredentials
	}

	var admitted []*Credential
	for _, cred := range healthy {
		if r.limits.Allow(cred.Name, cred.RPM, cred.TPM) &&
			r.limits.Allow(limiterKey(cred.Name, model), info.RPM, info.TPM) {
			admitted = append(admitted, cred)
		}
	}
	if len(admitted) == 0 {
		return nil, nil, ErrRateLimited
	}

	// Least recently used. Over a stable pool this walks the credentials
	// in turn; fresh credentials (zero timestamp) go first.
	chosen := admitted[0]
	for _, cred := range admitted[1:] {
		if cred.lastUsed.Before(chosen.lastUsed) {
			chosen = cred
		}
	}

	chosen.lastUsed = r.now()
	r.limits.AddRequest(chosen.Name)
	r.limits.AddRequest(limiterKey(chosen.Name, model))
	return chosen, info, nil
}

// RecordSuccess reports a 2xx upstream response, clearing failure state
// and charging token usage against the rate windows.
func (r *Router) RecordSuccess(credential, model string, tokens int) {
	r.bans.RecordSuccess(credential, model)
	if tokens > 0 {
		r.limits.AddTokens(credential, tokens)
		r.limits.AddTokens(limiterKey(credential, model), tokens)
	}
}

// RecordFailure reports a failed upstream attempt. It returns true when
// the failure banned the credential for the model.
func (r *Router) RecordFailure(credential, model string, err error) bool {
	return r.bans.RecordFailure(credential, model, err)
}

// Stats summarizes pool health for the /health endpoint.
type Stats struct {
	TotalCredentials     int
	CredentialsBanned    int
	CredentialsAvailable int
}

// Stats reports the credential pool state. A credential counts as banned
// when it has an active ban for any model.
func (r *Router) Stats() Stats {
	banned := r.bans.BannedCredentials()
	bannedSet := make(map[string]bool, len(banned))
	for _, name := range banned {
		bannedSet[name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{TotalCredentials: len(r.creds)}
	for _, cred := range r.creds {
		if bannedSet[cred.Name] {
			s.CredentialsBanned++
		} else {
			s.CredentialsAvailable++
		}
	}
	return s
}

// Credentials returns the current pool. The slice must not be mutated.
func (r *Router) Credentials() []*Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds
}
