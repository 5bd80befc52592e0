package types

import (
	"encoding/json"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		errorType string
		want      int
	}{
		{ErrorTypeInvalidRequest, 400},
		{ErrorTypeAuthentication, 401},
		{ErrorTypePermissionDenied, 403},
		{ErrorTypeNotFound, 404},
		{ErrorTypeRateLimitExceeded, 429},
		{ErrorTypeServerError, 500},
		{ErrorTypeBadGateway, 502},
		{ErrorTypeServiceUnavailable, 503},
		{ErrorTypeGatewayTimeout, 504},
		{"unknown_type", 500},
	}

	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			detail := ErrorDetail{Type: tt.errorType}
			if got := detail.HTTPStatusCode(); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewAuthenticationError(t *testing.T) {
	resp := NewAuthenticationError("Incorrect API key provided")
	if resp.Error.Type != ErrorTypeAuthentication {
		t.Errorf("type = %q, want %q", resp.Error.Type, ErrorTypeAuthentication)
	}
	if resp.Error.Code != CodeInvalidAPIKey {
		t.Errorf("code = %q, want %q", resp.Error.Code, CodeInvalidAPIKey)
	}
	if resp.Error.HTTPStatusCode() != 401 {
		t.Errorf("status = %d, want 401", resp.Error.HTTPStatusCode())
	}
}

func TestErrorResponseShape(t *testing.T) {
	resp := NewModelNotFoundError("nope-1")
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	inner, ok := decoded["error"]
	if !ok {
		t.Fatal("response missing top-level error object")
	}
	for _, field := range []string{"message", "type", "code"} {
		if _, ok := inner[field]; !ok {
			t.Errorf("error object missing %q field", field)
		}
	}
	if inner["code"] != CodeModelNotFound {
		t.Errorf("code = %v, want %q", inner["code"], CodeModelNotFound)
	}
}
