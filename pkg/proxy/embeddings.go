package proxy

import (
	"net/http"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/telemetry/logging"
)

// HandleEmbeddings serves POST /v1/embeddings.
func (d *Dispatcher) HandleEmbeddings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req types.EmbeddingRequest
	if err := decodeRequest(w, r, d.maxBody, &req); err != nil {
		errResp := HandleError(err)
		WriteError(w, errResp)
		d.finish(r.Context(), "", req.Model, endpointEmbeddings, statusFromError(errResp), start, types.Usage{})
		return
	}

	ctx := logging.WithModel(r.Context(), req.Model)

	resp, cred, errResp := d.Embeddings(ctx, &req)
	if errResp != nil {
		WriteError(w, errResp)
		d.finish(ctx, cred, req.Model, endpointEmbeddings, statusFromError(errResp), start, types.Usage{})
		return
	}

	WriteJSON(w, http.StatusOK, resp)
	d.finish(ctx, cred, req.Model, endpointEmbeddings, http.StatusOK, start, resp.Usage)
}
