package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
	"auto-ai/router/pkg/routing"
	"auto-ai/router/pkg/telemetry/logging"
	"auto-ai/router/pkg/telemetry/metrics"
	"auto-ai/router/pkg/usage"
	usagestore "auto-ai/router/pkg/usage/store"
)

// DefaultMaxAttempts is the total upstream attempt budget per request,
// including the first attempt.
const DefaultMaxAttempts = 3

// DispatcherConfig configures the request dispatcher.
type DispatcherConfig struct {
	// Router selects credentials and tracks their health.
	Router *routing.Router

	// Usage is the usage log. Nil disables usage accounting.
	Usage *usagestore.Store

	// Metrics is the metrics collector. Nil disables metrics.
	Metrics *metrics.Collector

	// Logger is the structured logger.
	Logger *slog.Logger

	// MaxBodyBytes caps request body sizes. Zero means no cap.
	MaxBodyBytes int64

	// MaxAttempts is the upstream attempt budget. Default 3.
	MaxAttempts int
}

// Dispatcher routes client requests to upstream credentials. It owns
// the retry policy: providers make exactly one attempt, and on a
// retryable failure the dispatcher records it against the credential
// and fails over to the next one, up to MaxAttempts total.
type Dispatcher struct {
	router      *routing.Router
	usage       *usagestore.Store
	metrics     *metrics.Collector
	logger      *slog.Logger
	maxBody     int64
	maxAttempts int
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		router:      cfg.Router,
		usage:       cfg.Usage,
		metrics:     cfg.Metrics,
		logger:      logger.With("component", "proxy.dispatcher"),
		maxBody:     cfg.MaxBodyBytes,
		maxAttempts: maxAttempts,
	}
}

// Router returns the dispatcher's router, for the models and health
// endpoints.
func (d *Dispatcher) Router() *routing.Router {
	return d.router
}

// selectionError maps a router selection failure to the wire error.
// The model name goes into the message so the caller can tell which
// model was rejected.
func (d *Dispatcher) selectionError(model string, err error) *types.ErrorResponse {
	switch {
	case errors.Is(err, routing.ErrUnknownModel):
		d.recordRejection(metrics.ReasonUnknownModel)
		return types.NewModelNotFoundError(model)
	case errors.Is(err, routing.ErrRateLimited):
		d.recordRejection(metrics.ReasonRateLimited)
		return types.NewRateLimitError(
			"Rate limit reached for model " + model + ". Please retry later.",
		)
	default:
		d.recordRejection(metrics.ReasonNoCredentials)
		return types.NewServiceUnavailableError(
			"No credentials are currently available for model " + model + ".",
		)
	}
}

func (d *Dispatcher) recordRejection(reason string) {
	if d.metrics != nil {
		d.metrics.RecordSelectionRejected(reason)
	}
}

// dispatch runs the failover loop. fn performs one upstream attempt
// against the selected credential; the dispatcher records failures and
// retries with a fresh selection while the error is retryable and
// attempts remain. On success it returns the credential that served
// the request.
func (d *Dispatcher) dispatch(ctx context.Context, model string, fn func(*routing.Credential, *routing.ModelInfo) error) (*routing.Credential, *types.ErrorResponse) {
	var lastCred *routing.Credential
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		cred, info, err := d.router.Select(model)
		if err != nil {
			// Exhausting the pool mid-loop still reports the last
			// upstream error, which is more useful than "no credentials".
			if lastErr != nil {
				break
			}
			return nil, d.selectionError(model, err)
		}

		err = fn(cred, info)
		if err == nil {
			return cred, nil
		}

		lastCred, lastErr = cred, err
		d.recordAttemptFailure(ctx, cred.Name, model, attempt, err)

		if !providers.Retryable(err) {
			return cred, HandleError(err)
		}
	}

	d.logger.WarnContext(ctx, "upstream attempts exhausted",
		"model", model,
		"attempts", d.maxAttempts,
		"error", lastErr,
	)
	return lastCred, types.NewBadGatewayError(
		"All upstream attempts for model " + model + " failed. Please retry later.",
	)
}

// recordAttemptFailure reports one failed upstream attempt to the ban
// registry and metrics.
func (d *Dispatcher) recordAttemptFailure(ctx context.Context, credential, model string, attempt int, err error) {
	banned := d.router.RecordFailure(credential, model, err)
	if d.metrics != nil {
		d.metrics.RecordCredentialError(credential, routing.ErrorCode(err))
	}
	d.logger.WarnContext(ctx, "upstream attempt failed",
		"credential", credential,
		"model", model,
		"attempt", attempt,
		"banned", banned,
		"retryable", providers.Retryable(err),
		"error", err,
	)
}

// Complete dispatches a non-streaming chat completion.
func (d *Dispatcher) Complete(ctx context.Context, req *types.ChatCompletionRequest) (*types.ChatCompletionResponse, string, *types.ErrorResponse) {
	var resp *types.ChatCompletionResponse
	cred, errResp := d.dispatch(ctx, req.Model, func(c *routing.Credential, info *routing.ModelInfo) error {
		upstream := *req
		upstream.Model = info.UpstreamModel()
		r, err := c.Provider.Complete(ctx, &upstream)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if errResp != nil {
		return nil, credentialName(cred), errResp
	}

	// Clients see the id they asked for, never the upstream alias.
	resp.Model = req.Model
	resp.Usage = usage.Normalize(resp.Usage, d.logger)
	d.recordCompletion(cred.Name, req.Model, resp.Usage)
	return resp, cred.Name, nil
}

// OpenStream dispatches a streaming chat completion and returns the
// open chunk channel. Failover happens here: a provider that fails
// before its stream opens has forwarded nothing, so trying the next
// credential is safe. Once a channel is returned, retries are over.
func (d *Dispatcher) OpenStream(ctx context.Context, req *types.ChatCompletionRequest) (<-chan *providers.StreamChunk, *routing.Credential, *types.ErrorResponse) {
	var stream <-chan *providers.StreamChunk
	cred, errResp := d.dispatch(ctx, req.Model, func(c *routing.Credential, info *routing.ModelInfo) error {
		upstream := *req
		upstream.Model = info.UpstreamModel()
		ch, err := c.Provider.StreamCompletion(ctx, &upstream)
		if err != nil {
			return err
		}
		stream = ch
		return nil
	})
	if errResp != nil {
		return nil, cred, errResp
	}
	return stream, cred, nil
}

// Embeddings dispatches an embedding request.
func (d *Dispatcher) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, string, *types.ErrorResponse) {
	var resp *types.EmbeddingResponse
	cred, errResp := d.dispatch(ctx, req.Model, func(c *routing.Credential, info *routing.ModelInfo) error {
		upstream := *req
		upstream.Model = info.UpstreamModel()
		r, err := c.Provider.Embeddings(ctx, &upstream)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if errResp != nil {
		return nil, credentialName(cred), errResp
	}

	resp.Model = req.Model
	resp.Usage = usage.Normalize(resp.Usage, d.logger)
	d.recordCompletion(cred.Name, req.Model, resp.Usage)
	return resp, cred.Name, nil
}

// GenerateImages dispatches an image generation request.
func (d *Dispatcher) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, string, *types.ErrorResponse) {
	var resp *types.ImageGenerationResponse
	cred, errResp := d.dispatch(ctx, req.Model, func(c *routing.Credential, info *routing.ModelInfo) error {
		upstream := *req
		upstream.Model = info.UpstreamModel()
		r, err := c.Provider.GenerateImages(ctx, &upstream)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if errResp != nil {
		return nil, credentialName(cred), errResp
	}

	d.recordCompletion(cred.Name, req.Model, types.Usage{})
	return resp, cred.Name, nil
}

// recordCompletion reports a successful upstream response: failure
// state clears, token usage is charged against the rate windows and
// the token counters, and the window gauges refresh.
func (d *Dispatcher) recordCompletion(credential, model string, u types.Usage) {
	d.router.RecordSuccess(credential, model, u.TotalTokens)
	if d.metrics != nil {
		d.metrics.RecordTokens(credential, model, u.PromptTokens, u.CompletionTokens)
	}
	d.refreshRates(credential, model)
}

// refreshRates pushes the limiter's current window counts into the
// gauges. Model-level counts are summed over the per credential+model
// windows of the whole pool.
func (d *Dispatcher) refreshRates(credential, model string) {
	if d.metrics == nil {
		return
	}
	limits := d.router.Limits()
	d.metrics.SetCredentialRates(credential, limits.Requests(credential), limits.Tokens(credential))

	var reqs, toks int64
	for _, c := range d.router.Credentials() {
		key := routing.LimiterKey(c.Name, model)
		reqs += limits.Requests(key)
		toks += limits.Tokens(key)
	}
	d.metrics.SetModelRates(model, reqs, toks)
}

// finish records the request outcome in metrics and the usage log.
// credential is empty when the request never reached an upstream.
func (d *Dispatcher) finish(ctx context.Context, credential, model, endpoint string, status int, start time.Time, u types.Usage) {
	elapsed := time.Since(start)

	if d.metrics != nil {
		label := credential
		if label == "" {
			label = "none"
		}
		d.metrics.RecordRequest(label, endpoint, status, elapsed)
	}

	if d.usage != nil {
		d.usage.Record(usagestore.Record{
			RequestID:        logging.RequestID(ctx),
			Credential:       credential,
			Model:            model,
			Endpoint:         endpoint,
			Status:           status,
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			LatencyMS:        elapsed.Milliseconds(),
			Created:          start,
		})
	}
}

func credentialName(cred *routing.Credential) string {
	if cred == nil {
		return ""
	}
	return cred.Name
}

// statusFromError derives the HTTP status actually sent for a request
// that ended in an error response.
func statusFromError(errResp *types.ErrorResponse) int {
	if errResp == nil {
		return http.StatusOK
	}
	return errResp.Error.HTTPStatusCode()
}
