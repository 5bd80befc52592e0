package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"auto-ai/router/pkg/gateway/types"
)

// validatable is implemented by all request payload types.
type validatable interface {
	Validate() error
}

// decodeRequest reads and validates a JSON request body. The body is
// capped at maxBytes via http.MaxBytesReader so an oversized payload
// aborts the read instead of buffering.
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64, dst validatable) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &RequestError{
				Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxErr.Limit),
				Code:    types.CodeRequestTooLarge,
				Param:   "body",
			}
		}
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if err := dst.Validate(); err != nil {
		if valErr, ok := err.(*types.ValidationError); ok {
			return &RequestError{
				Message: valErr.Message,
				Code:    types.CodeInvalidValue,
				Param:   valErr.Field,
			}
		}
		return err
	}
	return nil
}

// RequestError is a request parsing or validation failure.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts the error to the OpenAI wire format.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
