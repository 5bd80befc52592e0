package proxy

import (
	"net/http"
	"time"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/telemetry/logging"
)

// HandleImageGenerations serves POST /v1/images/generations.
func (d *Dispatcher) HandleImageGenerations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req types.ImageGenerationRequest
	if err := decodeRequest(w, r, d.maxBody, &req); err != nil {
		errResp := HandleError(err)
		WriteError(w, errResp)
		d.finish(r.Context(), "", req.Model, endpointImages, statusFromError(errResp), start, types.Usage{})
		return
	}

	ctx := logging.WithModel(r.Context(), req.Model)

	resp, cred, errResp := d.GenerateImages(ctx, &req)
	if errResp != nil {
		WriteError(w, errResp)
		d.finish(ctx, cred, req.Model, endpointImages, statusFromError(errResp), start, types.Usage{})
		return
	}

	WriteJSON(w, http.StatusOK, resp)
	d.finish(ctx, cred, req.Model, endpointImages, http.StatusOK, start, types.Usage{})
}
