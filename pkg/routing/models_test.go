package routing

import "testing"

func TestCatalogOrderAndLookup(t *testing.T) {
	c := NewCatalog([]ModelInfo{
		{ID: "gpt-4o"},
		{ID: "claude-opus-4-1"},
		{ID: "gpt-4o"}, // duplicate, first declaration wins
	})

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	list := c.List()
	if list[0].ID != "gpt-4o" || list[1].ID != "claude-opus-4-1" {
		t.Errorf("order = %v", []string{list[0].ID, list[1].ID})
	}

	if _, ok := c.Lookup("claude-opus-4-1"); !ok {
		t.Error("lookup failed")
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Error("lookup should miss")
	}
}

func TestModelInfoUpstream(t *testing.T) {
	m := &ModelInfo{ID: "alias"}
	if m.UpstreamModel() != "alias" {
		t.Errorf("upstream = %q", m.UpstreamModel())
	}
	m.Upstream = "native-name"
	if m.UpstreamModel() != "native-name" {
		t.Errorf("upstream = %q", m.UpstreamModel())
	}
}

func TestModelInfoAllowsCredential(t *testing.T) {
	open := &ModelInfo{ID: "m"}
	if !open.allowsCredential("anything") {
		t.Error("empty restriction allows all")
	}

	restricted := &ModelInfo{ID: "m", Credentials: []string{"a", "b"}}
	if !restricted.allowsCredential("a") || restricted.allowsCredential("c") {
		t.Error("restriction not enforced")
	}
}
