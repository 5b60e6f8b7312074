package api

import (
	"net/http"

	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/scenario"
	"github.com/go-chi/chi/v5"
)

// ScenarioHandler handles scenario CRUD endpoints.
type ScenarioHandler struct {
	*Handler
}

// NewScenarioHandler creates a scenario handler.
func NewScenarioHandler(base *Handler) *ScenarioHandler {
	return &ScenarioHandler{Handler: base}
}

// RegisterRoutes registers scenario routes.
func (h *ScenarioHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/scenarios", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/meta/voices", h.Voices)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns all scenarios with company templates resolved.
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.scenarios.List()
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "scenarios": scenarios})
}

// Get returns one scenario by ID.
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.scenarios.Get(chi.URLParam(r, "id"))
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "scenario": s})
}

// Create stores a new custom scenario.
func (h *ScenarioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var s domain.Scenario
	if err := decode(w, r, &s); err != nil {
		Error(w, http.StatusBadRequest, "invalid scenario payload")
		return
	}
	created, err := h.scenarios.Create(s)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "scenario": created})
}

// Update shallow-merges the request body onto the stored scenario.
func (h *ScenarioHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decode(w, r, &patch); err != nil {
		Error(w, http.StatusBadRequest, "invalid patch payload")
		return
	}
	updated, err := h.scenarios.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "scenario": updated})
}

// Delete removes a scenario.
func (h *ScenarioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.scenarios.Delete(id); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "message": "scenario " + id + " deleted"})
}

// Voices returns the curated voice catalog.
func (h *ScenarioHandler) Voices(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"success": true, "voices": scenario.Voices()})
}
