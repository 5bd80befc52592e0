package vertex

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// cloudPlatformScope grants access to the Vertex AI API.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenManager supplies OAuth2 bearer tokens for Vertex AI credentials.
// Tokens are cached and refreshed ahead of expiry by the underlying
// oauth2.ReuseTokenSource. It is safe for concurrent use.
type TokenManager struct {
	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewTokenManagerFromFile loads a service-account key file.
func NewTokenManagerFromFile(ctx context.Context, path string) (*TokenManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return NewTokenManagerFromJSON(ctx, data)
}

// NewTokenManagerFromJSON builds a token manager from service-account key
// JSON.
func NewTokenManagerFromJSON(ctx context.Context, data []byte) (*TokenManager, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return &TokenManager{source: oauth2.ReuseTokenSource(nil, creds.TokenSource)}, nil
}

// NewTokenManagerDefault resolves Application Default Credentials from the
// environment (GOOGLE_APPLICATION_CREDENTIALS, metadata server).
func NewTokenManagerDefault(ctx context.Context) (*TokenManager, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default credentials: %w", err)
	}
	return &TokenManager{source: oauth2.ReuseTokenSource(nil, creds.TokenSource)}, nil
}

// Token returns a currently valid bearer token.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.source.Token()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return tok.AccessToken, nil
}
