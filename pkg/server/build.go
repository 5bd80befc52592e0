package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"auto-ai/router/pkg/config"
	"auto-ai/router/pkg/providers"
	"auto-ai/router/pkg/providers/anthropic"
	"auto-ai/router/pkg/providers/openai"
	"auto-ai/router/pkg/providers/vertex"
	"auto-ai/router/pkg/routing"
)

// buildCredentials constructs the provider adapters and routing
// credentials for the configured pool. On error, adapters already built
// are closed.
func buildCredentials(ctx context.Context, cfgs []config.CredentialConfig, logger *slog.Logger) ([]*routing.Credential, error) {
	creds := make([]*routing.Credential, 0, len(cfgs))
	for _, cc := range cfgs {
		provider, err := buildProvider(ctx, cc, logger)
		if err != nil {
			closeCredentials(creds, logger)
			return nil, fmt.Errorf("credential %q: %w", cc.Name, err)
		}
		creds = append(creds, &routing.Credential{
			Name:     cc.Name,
			Provider: provider,
			Models:   cc.Models,
			RPM:      cc.RPM,
			TPM:      cc.TPM,
		})
	}
	return creds, nil
}

func buildProvider(ctx context.Context, cc config.CredentialConfig, logger *slog.Logger) (providers.Provider, error) {
	pcfg := providers.Config{
		Name:      cc.Name,
		Type:      providers.Type(cc.Type),
		APIKey:    cc.APIKey,
		BaseURL:   cc.BaseURL,
		ProjectID: cc.ProjectID,
		Location:  cc.Location,
		Timeout:   cc.Timeout,
	}

	switch pcfg.Type {
	case providers.TypeOpenAI:
		return openai.New(pcfg, logger)

	case providers.TypeAnthropic:
		return anthropic.New(pcfg, logger)

	case providers.TypeGemini:
		return vertex.New(pcfg, logger)

	case providers.TypeVertex:
		tokens, err := buildTokenSource(ctx, cc)
		if err != nil {
			return nil, err
		}
		pcfg.Tokens = tokens
		return vertex.New(pcfg, logger)

	default:
		return nil, fmt.Errorf("unknown credential type %q", cc.Type)
	}
}

// buildTokenSource resolves Vertex service-account credentials. Inline
// JSON wins over a file path; with neither set, Application Default
// Credentials are used.
func buildTokenSource(ctx context.Context, cc config.CredentialConfig) (providers.TokenSource, error) {
	switch {
	case cc.CredentialsJSON != "":
		return vertex.NewTokenManagerFromJSON(ctx, []byte(cc.CredentialsJSON))
	case cc.CredentialsFile != "":
		return vertex.NewTokenManagerFromFile(ctx, cc.CredentialsFile)
	default:
		return vertex.NewTokenManagerDefault(ctx)
	}
}

func closeCredentials(creds []*routing.Credential, logger *slog.Logger) {
	for _, cred := range creds {
		if err := cred.Provider.Close(); err != nil {
			logger.Warn("failed to close provider", "credential", cred.Name, "error", err)
		}
	}
}

// buildCatalog converts the configured model bindings into the router's
// catalog. The created timestamp is fixed at build time so /v1/models
// stays stable between requests.
func buildCatalog(models []config.ModelConfig) *routing.Catalog {
	now := time.Now().Unix()
	infos := make([]routing.ModelInfo, 0, len(models))
	for _, m := range models {
		infos = append(infos, routing.ModelInfo{
			ID:          m.ID,
			Upstream:    m.Upstream,
			Credentials: m.Credentials,
			RPM:         m.RPM,
			TPM:         m.TPM,
			Created:     now,
		})
	}
	return routing.NewCatalog(infos)
}

// buildBanRules converts configured rule overrides.
func buildBanRules(rules []config.BanRuleConfig) []routing.Rule {
	out := make([]routing.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, routing.Rule{
			Code:        r.Code,
			MaxAttempts: r.MaxAttempts,
			BanDuration: r.BanDuration,
		})
	}
	return out
}
