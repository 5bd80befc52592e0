package proxy

import (
	"net/http"

	"auto-ai/router/pkg/gateway/types"
)

// HandleListModels serves GET /v1/models from the current catalog.
func (d *Dispatcher) HandleListModels(w http.ResponseWriter, r *http.Request) {
	catalog := d.router.Catalog()

	list := types.ModelList{
		Object: "list",
		Data:   make([]types.Model, 0, catalog.Len()),
	}
	for _, m := range catalog.List() {
		list.Data = append(list.Data, types.Model{
			ID:      m.ID,
			Object:  "model",
			Created: m.Created,
			OwnedBy: "auto-ai",
		})
	}

	WriteJSON(w, http.StatusOK, list)
}
