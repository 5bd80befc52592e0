package usage

import (
	"log/slog"

	"auto-ai/router/pkg/gateway/types"
)

// Normalize enforces the usage invariant total = prompt + completion.
// The computed sum always wins over a provider-reported total; a
// disagreement is logged once per response.
func Normalize(u types.Usage, logger *slog.Logger) types.Usage {
	sum := u.PromptTokens + u.CompletionTokens
	if u.TotalTokens != sum {
		if u.TotalTokens != 0 && logger != nil {
			logger.Warn("provider-reported total_tokens disagrees with component sum",
				"reported", u.TotalTokens,
				"computed", sum,
			)
		}
		u.TotalTokens = sum
	}
	return u
}
