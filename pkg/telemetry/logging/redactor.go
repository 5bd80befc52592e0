package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks secrets in log attribute values. It recognizes common
// API key shapes and bearer tokens by pattern, and fully masks values
// whose attribute key names a secret.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// Pattern is a custom redaction rule compiled into the Redactor.
type Pattern struct {
	Regex       string
	Replacement string
}

var defaultPatterns = []Pattern{
	// OpenAI-style keys.
	{Regex: `sk-[a-zA-Z0-9_-]{8,}`, Replacement: "sk-***"},
	// Anthropic keys.
	{Regex: `sk-ant-[a-zA-Z0-9_-]{8,}`, Replacement: "sk-ant-***"},
	// Google API keys.
	{Regex: `AIza[a-zA-Z0-9_-]{20,}`, Replacement: "AIza***"},
	// Authorization headers.
	{Regex: `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, Replacement: "Bearer ***"},
}

// NewRedactor creates a Redactor with the default patterns plus any
// custom ones. Custom patterns that fail to compile are skipped.
func NewRedactor(custom ...Pattern) *Redactor {
	r := &Redactor{}
	for _, p := range append(append([]Pattern{}, defaultPatterns...), custom...) {
		regex, err := regexp.Compile(p.Regex)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{regex: regex, replacement: p.Replacement})
	}
	return r
}

// RedactString masks secret shapes inside a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// redactAttr masks a single slog attribute. Group attributes are
// redacted recursively.
func (r *Redactor) redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, a := range group {
			masked[i] = r.redactAttr(a)
		}
		attr.Value = slog.GroupValue(masked...)
		return attr
	}

	if isSensitiveKey(attr.Key) {
		attr.Value = slog.StringValue(maskValue(attr.Value.String()))
		return attr
	}
	if attr.Value.Kind() == slog.KindString {
		attr.Value = slog.StringValue(r.RedactString(attr.Value.String()))
	}
	return attr
}

var sensitiveKeys = []string{
	"api_key", "apikey", "master_key",
	"secret", "token", "password",
	"auth", "authorization",
	"credentials_json",
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// maskValue masks a sensitive value, keeping a short prefix so operators
// can still tell keys apart.
func maskValue(value string) string {
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}
