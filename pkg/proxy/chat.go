package proxy

import (
	"context"
	"net/http"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/routing"
	"auto-ai/router/pkg/telemetry/logging"
	"auto-ai/router/pkg/usage"
)

// Endpoint labels used for metrics and the usage log.
const (
	endpointChat       = "/v1/chat/completions"
	endpointEmbeddings = "/v1/embeddings"
	endpointImages     = "/v1/images/generations"
	endpointModels     = "/v1/models"
)

// HandleChatCompletions serves POST /v1/chat/completions.
func (d *Dispatcher) HandleChatCompletions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req types.ChatCompletionRequest
	if err := decodeRequest(w, r, d.maxBody, &req); err != nil {
		errResp := HandleError(err)
		WriteError(w, errResp)
		d.finish(r.Context(), "", req.Model, endpointChat, statusFromError(errResp), start, types.Usage{})
		return
	}

	ctx := logging.WithModel(r.Context(), req.Model)

	if req.Stream {
		d.streamChatCompletion(ctx, w, &req, start)
		return
	}

	resp, cred, errResp := d.Complete(ctx, &req)
	if errResp != nil {
		WriteError(w, errResp)
		d.finish(ctx, cred, req.Model, endpointChat, statusFromError(errResp), start, types.Usage{})
		return
	}

	WriteJSON(w, http.StatusOK, resp)
	d.finish(ctx, cred, req.Model, endpointChat, http.StatusOK, start, resp.Usage)
}

// streamChatCompletion relays a streamed completion. Failover happens
// inside OpenStream, before any response bytes are committed; once the
// SSE headers go out an upstream failure ends the stream with an error
// event instead.
func (d *Dispatcher) streamChatCompletion(ctx context.Context, w http.ResponseWriter, req *types.ChatCompletionRequest, start time.Time) {
	stream, cred, errResp := d.OpenStream(ctx, req)
	if errResp != nil {
		WriteError(w, errResp)
		d.finish(ctx, credentialName(cred), req.Model, endpointChat, statusFromError(errResp), start, types.Usage{})
		return
	}

	ctx = logging.WithCredential(ctx, cred.Name)
	SetSSEHeaders(w)

	var streamUsage types.Usage
	for chunk := range stream {
		if chunk.Error != nil {
			d.recordStreamFailure(ctx, cred.Name, req.Model, chunk.Error)
			WriteSSEError(w, HandleError(chunk.Error))
			for range stream {
			}
			// The 200 was committed with the SSE headers.
			d.finish(ctx, cred.Name, req.Model, endpointChat, http.StatusOK, start, streamUsage)
			return
		}
		if chunk.Chunk == nil {
			continue
		}

		chunk.Chunk.Model = req.Model
		if chunk.Chunk.Usage != nil {
			streamUsage = usage.Normalize(*chunk.Chunk.Usage, d.logger)
			chunk.Chunk.Usage = &streamUsage
		}
		if err := WriteSSEChunk(w, chunk.Chunk); err != nil {
			// The client went away. Drain so the provider can shut down.
			d.logger.DebugContext(ctx, "client disconnected mid-stream", "error", err)
			for range stream {
			}
			d.recordCompletion(cred.Name, req.Model, streamUsage)
			d.finish(ctx, cred.Name, req.Model, endpointChat, http.StatusOK, start, streamUsage)
			return
		}
	}

	WriteSSEDone(w)
	d.recordCompletion(cred.Name, req.Model, streamUsage)
	d.finish(ctx, cred.Name, req.Model, endpointChat, http.StatusOK, start, streamUsage)
}

// recordStreamFailure reports an upstream failure after the stream
// opened. Too late to fail over, but the failure still counts toward
// the credential's ban threshold.
func (d *Dispatcher) recordStreamFailure(ctx context.Context, credential, model string, err error) {
	banned := d.router.RecordFailure(credential, model, err)
	if d.metrics != nil {
		d.metrics.RecordCredentialError(credential, routing.ErrorCode(err))
	}
	d.logger.ErrorContext(ctx, "stream failed mid-flight",
		"credential", credential,
		"model", model,
		"banned", banned,
		"error", err,
	)
}
