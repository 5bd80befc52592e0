package routing

// ModelInfo is the binding of a client-visible model id to its routing
// constraints.
type ModelInfo struct {
	// ID is the model id clients send.
	ID string

	// Upstream is the provider-native model name. Empty means the id is
	// passed through unchanged.
	Upstream string

	// Credentials restricts which credentials may serve this model.
	// Empty means any credential whose own model set allows it.
	Credentials []string

	// RPM and TPM are per credential+model rate limits. Zero means no
	// limit beyond the credential-wide ones.
	RPM int
	TPM int

	// Created is the Unix timestamp reported on /v1/models.
	Created int64
}

// UpstreamModel returns the provider-native model name.
func (m *ModelInfo) UpstreamModel() string {
	if m.Upstream != "" {
		return m.Upstream
	}
	return m.ID
}

// allowsCredential reports whether the binding permits the named
// credential.
func (m *ModelInfo) allowsCredential(name string) bool {
	if len(m.Credentials) == 0 {
		return true
	}
	for _, c := range m.Credentials {
		if c == name {
			return true
		}
	}
	return false
}

// Catalog is the read-mostly set of model bindings. It is replaced
// wholesale on config reload, never mutated in place.
type Catalog struct {
	order  []string
	models map[string]*ModelInfo
}

// NewCatalog builds a catalog preserving the declaration order of models.
func NewCatalog(models []ModelInfo) *Catalog {
	c := &Catalog{models: make(map[string]*ModelInfo, len(models))}
	for i := range models {
		m := models[i]
		if _, ok := c.models[m.ID]; ok {
			continue
		}
		c.models[m.ID] = &m
		c.order = append(c.order, m.ID)
	}
	return c
}

// Lookup returns the binding for a model id.
func (c *Catalog) Lookup(id string) (*ModelInfo, bool) {
	m, ok := c.models[id]
	return m, ok
}

// List returns all bindings in declaration order.
func (c *Catalog) List() []*ModelInfo {
	out := make([]*ModelInfo, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.models[id])
	}
	return out
}

// Len returns the number of bindings.
func (c *Catalog) Len() int {
	return len(c.order)
}
