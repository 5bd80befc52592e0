package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"auto-ai/router/pkg/telemetry/logging"
)

// RequestIDHeader is the header carrying the request id in both
// directions.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an id, honoring one the client
// already sent, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
