// internal/api/handler/results.go
package handler

import (
	"net/http"

	"github.com/trendsim/trendsim/internal/api/response"
	"github.com/trendsim/trendsim/internal/storage/result"
)

// ResultHandler serves archived backtest results.
type ResultHandler struct {
	store *result.Store
}

// NewResultHandler creates a result handler.
func NewResultHandler(store *result.Store) *ResultHandler {
	return &ResultHandler{store: store}
}

// List returns the archived result IDs for a strategy.
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListIDs(r.Context(), r.PathValue("strategy"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ids)
}

// Get returns one archived result.
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.Get(r.Context(), r.PathValue("strategy"), r.PathValue("id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
