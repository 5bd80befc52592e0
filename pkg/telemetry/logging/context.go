package logging

import (
	"context"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// CredentialKey is the context key for the selected credential name.
	CredentialKey contextKey = "credential"

	// ModelKey is the context key for the requested model name.
	ModelKey contextKey = "model"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithCredential adds the selected credential name to the context.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, CredentialKey, credential)
}

// Credential retrieves the credential name from the context.
func Credential(ctx context.Context) string {
	if credential, ok := ctx.Value(CredentialKey).(string); ok {
		return credential
	}
	return ""
}

// WithModel adds the requested model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// Model retrieves the model name from the context.
func Model(ctx context.Context) string {
	if model, ok := ctx.Value(ModelKey).(string); ok {
		return model
	}
	return ""
}

// contextFields extracts request-scoped fields from the context as
// key-value pairs suitable for slog.
func contextFields(ctx context.Context) []any {
	var fields []any

	if requestID := RequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if credential := Credential(ctx); credential != "" {
		fields = append(fields, "credential", credential)
	}
	if model := Model(ctx); model != "" {
		fields = append(fields, "model", model)
	}

	return fields
}
