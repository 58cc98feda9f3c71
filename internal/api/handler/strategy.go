// internal/api/handler/strategy.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/trendsim/trendsim/internal/api/response"
	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/strategy"
)

// ownerHeader identifies the calling user for ownership checks.
const ownerHeader = "X-User-ID"

// StrategyHandler exposes strategy CRUD over the repository.
type StrategyHandler struct {
	repo *strategy.Repository
}

// NewStrategyHandler creates a strategy handler.
func NewStrategyHandler(repo *strategy.Repository) *StrategyHandler {
	return &StrategyHandler{repo: repo}
}

// StrategyInput is the request body for create and update.
type StrategyInput struct {
	ID          string               `json:"id,omitempty"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	IsPublic    bool                 `json:"is_public,omitempty"`
	Parameters  []strategy.Parameter `json:"parameters"`
	Rules       []strategy.Rule      `json:"rules"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

func (in *StrategyInput) toStrategy() *strategy.Strategy {
	return &strategy.Strategy{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		IsPublic:    in.IsPublic,
		Parameters:  in.Parameters,
		Rules:       in.Rules,
		Metadata:    in.Metadata,
	}
}

// List returns strategies visible to the caller, system strategies
// included.
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	f := strategy.Filter{
		OwnerID:  r.URL.Query().Get("owner"),
		Category: r.URL.Query().Get("category"),
	}
	if r.URL.Query().Get("public") == "true" {
		f.PublicOnly = true
	}

	strategies, err := h.repo.List(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, strategies)
}

// Get returns one strategy by id.
func (h *StrategyHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// Create persists a new strategy owned by the caller.
func (h *StrategyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in StrategyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}

	s, err := h.repo.Create(r.Context(), r.Header.Get(ownerHeader), in.toStrategy())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, s)
}

// Update replaces a strategy definition owned by the caller.
func (h *StrategyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in StrategyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	in.ID = r.PathValue("id")

	s, err := h.repo.Update(r.Context(), r.Header.Get(ownerHeader), in.toStrategy())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// Delete soft-deletes a strategy owned by the caller.
func (h *StrategyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), r.Header.Get(ownerHeader), r.PathValue("id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// Validate dry-runs validation without persisting anything.
func (h *StrategyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var in StrategyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	result := h.repo.Validate(in.Parameters, in.Rules)
	response.JSON(w, http.StatusOK, result)
}
