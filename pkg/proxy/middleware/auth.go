package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"auto-ai/router/pkg/gateway/types"
)

// Auth enforces the gateway master key. Clients authenticate with
// "Authorization: Bearer <master-key>"; anything else gets a 401 in
// the OpenAI error shape. The comparison is constant time.
func Auth(masterKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(masterKey)) != 1 {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	errResp := types.NewAuthenticationError(
		"Incorrect API key provided. You can find your API key in the gateway configuration.",
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(errResp)
}
