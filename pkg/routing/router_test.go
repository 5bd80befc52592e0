package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) Type() providers.Type { return providers.TypeOpenAI }
func (s *stubProvider) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	return nil, providers.ErrNotSupported
}
func (s *stubProvider) StreamCompletion(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, error) {
	return nil, providers.ErrNotSupported
}
func (s *stubProvider) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	return nil, providers.ErrNotSupported
}
func (s *stubProvider) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	return nil, providers.ErrNotSupported
}
func (s *stubProvider) Close() error { return nil }

func newTestRouter(creds []*Credential, models []ModelInfo) *Router {
	return NewRouter(creds, NewCatalog(models), nil, nil, nil)
}

func cred(name string, models ...string) *Credential {
	return &Credential{Name: name, Provider: &stubProvider{name: name}, Models: models}
}

func TestSelectUnknownModel(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "gpt-4o"}})
	_, _, err := r.Select("no-such-model")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
}

func TestSelectNoCredentials(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a", "other")}, []ModelInfo{{ID: "gpt-4o"}})
	_, _, err := r.Select("gpt-4o")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestSelectRoundRobinDistribution(t *testing.T) {
	creds := []*Credential{cred("a"), cred("b"), cred("c")}
	r := newTestRouter(creds, []ModelInfo{{ID: "gpt-4o"}})

	// Advance a deterministic clock so last-used ordering is exact.
	current := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}

	counts := make(map[string]int)
	for i := 0; i < 9; i++ {
		chosen, _, err := r.Select("gpt-4o")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		counts[chosen.Name]++
	}
	for _, c := range creds {
		if counts[c.Name] != 3 {
			t.Errorf("counts = %v, want even distribution", counts)
		}
	}
}

func TestSelectSkipsBanned(t *testing.T) {
	creds := []*Credential{cred("a"), cred("b")}
	r := newTestRouter(creds, []ModelInfo{{ID: "gpt-4o"}})

	r.RecordFailure("a", "gpt-4o", &providers.AuthError{Provider: "a", StatusCode: 401})
	for i := 0; i < 5; i++ {
		chosen, _, err := r.Select("gpt-4o")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if chosen.Name != "b" {
			t.Fatalf("picked banned credential %q", chosen.Name)
		}
	}
}

func TestSelectAllBanned(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "gpt-4o"}})
	r.RecordFailure("a", "gpt-4o", &providers.AuthError{Provider: "a", StatusCode: 401})

	_, _, err := r.Select("gpt-4o")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestSelectRateLimited(t *testing.T) {
	c := cred("a")
	c.RPM = 2
	r := newTestRouter([]*Credential{c}, []ModelInfo{{ID: "gpt-4o"}})

	for i := 0; i < 2; i++ {
		if _, _, err := r.Select("gpt-4o"); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	_, _, err := r.Select("gpt-4o")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestSelectModelLevelLimit(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "gpt-4o", RPM: 1}, {ID: "gpt-4o-mini"}})

	if _, _, err := r.Select("gpt-4o"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, _, err := r.Select("gpt-4o"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
	// Other models on the same credential are unaffected.
	if _, _, err := r.Select("gpt-4o-mini"); err != nil {
		t.Errorf("Select gpt-4o-mini: %v", err)
	}
}

func TestSelectCredentialRestriction(t *testing.T) {
	creds := []*Credential{cred("a"), cred("b")}
	r := newTestRouter(creds, []ModelInfo{{ID: "gpt-4o", Credentials: []string{"b"}}})

	for i := 0; i < 4; i++ {
		chosen, _, err := r.Select("gpt-4o")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if chosen.Name != "b" {
			t.Fatalf("restriction ignored, picked %q", chosen.Name)
		}
	}
}

func TestSelectNoStarvationAcrossModels(t *testing.T) {
	// X is served by {a, b}, Y only by b. Y must still get b.
	creds := []*Credential{cred("a", "model-x"), cred("b", "model-x", "model-y")}
	r := newTestRouter(creds, []ModelInfo{{ID: "model-x"}, {ID: "model-y"}})

	for i := 0; i < 10; i++ {
		if _, _, err := r.Select("model-x"); err != nil {
			t.Fatalf("Select x: %v", err)
		}
	}
	chosen, _, err := r.Select("model-y")
	if err != nil {
		t.Fatalf("Select y: %v", err)
	}
	if chosen.Name != "b" {
		t.Errorf("picked %q, want b", chosen.Name)
	}
}

func TestRecordSuccessChargesTokens(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "gpt-4o"}})
	r.RecordSuccess("a", "gpt-4o", 500)

	if got := r.Limits().Tokens("a"); got != 500 {
		t.Errorf("credential tokens = %d", got)
	}
	if got := r.Limits().Tokens(limiterKey("a", "gpt-4o")); got != 500 {
		t.Errorf("pair tokens = %d", got)
	}
}

func TestStats(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a"), cred("b"), cred("c")}, []ModelInfo{{ID: "gpt-4o"}})
	r.RecordFailure("b", "gpt-4o", &providers.AuthError{Provider: "b", StatusCode: 401})

	s := r.Stats()
	if s.TotalCredentials != 3 || s.CredentialsBanned != 1 || s.CredentialsAvailable != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestSwapKeepsBanState(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "gpt-4o"}})
	r.RecordFailure("a", "gpt-4o", &providers.AuthError{Provider: "a", StatusCode: 401})

	r.Swap([]*Credential{cred("a"), cred("b")}, NewCatalog([]ModelInfo{{ID: "gpt-4o"}}))

	chosen, _, err := r.Select("gpt-4o")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if chosen.Name == "a" {
		t.Errorf("banned credential %q selected after swap", chosen.Name)
	}
}

func TestSelectRewritesUpstreamModel(t *testing.T) {
	r := newTestRouter([]*Credential{cred("a")}, []ModelInfo{{ID: "my-alias", Upstream: "gpt-4o-2024-11-20"}})
	_, info, err := r.Select("my-alias")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if info.UpstreamModel() != "gpt-4o-2024-11-20" {
		t.Errorf("upstream = %q", info.UpstreamModel())
	}
}
