package proxy

import (
	"errors"
	"fmt"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// HandleError converts provider and request errors to OpenAI-compatible
// error responses. Selection errors from the router are handled by the
// dispatcher, which knows the requested model name.
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	if errors.Is(err, providers.ErrNotSupported) {
		return types.NewInvalidRequestError(
			"This operation is not supported by the selected model.",
			"model", types.CodeInvalidValue,
		)
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewGatewayTimeoutError("The upstream provider timed out.")
	}

	var rateErr *providers.RateLimitError
	if errors.As(err, &rateErr) {
		return types.NewRateLimitError(
			"The upstream provider is rate limiting requests. Please retry later.",
		)
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		// The credential failed upstream, not the client: that is a
		// gateway-side fault from the caller's perspective.
		return types.NewBadGatewayError("The upstream provider rejected the gateway's credentials.")
	}

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) {
		return types.NewBadGatewayError("The upstream provider returned an unparseable response.")
	}

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return handleProviderError(provErr)
	}

	return types.NewServerError("An internal error occurred. Please try again later.")
}

func handleProviderError(err *providers.ProviderError) *types.ErrorResponse {
	switch {
	case err.StatusCode >= 500 || err.StatusCode == 0:
		return types.NewBadGatewayError(
			fmt.Sprintf("The upstream provider (%s) returned an error.", err.Provider),
		)
	case err.StatusCode == 404:
		return types.NewInvalidRequestError(
			fmt.Sprintf("The upstream provider (%s) does not know this model.", err.Provider),
			"model", types.CodeModelNotFound,
		)
	case err.StatusCode >= 400:
		// Upstream 4xx on a forwarded payload is a client error; pass
		// the upstream message through so the caller can fix it.
		return types.NewInvalidRequestError(err.Message, "", types.CodeInvalidValue)
	default:
		return types.NewServerError(
			fmt.Sprintf("The upstream provider (%s) returned an unexpected status.", err.Provider),
		)
	}
}
