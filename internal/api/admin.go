package api

import (
	"net/http"

	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/go-chi/chi/v5"
)

// AdminHandler handles tenant-configuration endpoints.
type AdminHandler struct {
	*Handler
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(base *Handler) *AdminHandler {
	return &AdminHandler{Handler: base}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/scrape-company", h.ScrapeCompany)
		r.Post("/apply-company", h.ApplyCompany)
		r.Get("/current-config", h.CurrentConfig)
		r.Post("/load-transcript", h.LoadTranscript)
		r.Post("/update-config", h.UpdateConfig)
	})
}

// ScrapeCompany mines a company website for branding, text and structured
// facts. The result is returned for review; nothing is persisted until the
// admin applies it.
func (h *AdminHandler) ScrapeCompany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decode(w, r, &body); err != nil || body.URL == "" {
		Error(w, http.StatusBadRequest, "url is required")
		return
	}

	data, err := h.scraper.Scrape(r.Context(), body.URL)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// ApplyCompany replaces the tenant's company profile with reviewed scrape
// results.
func (h *AdminHandler) ApplyCompany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompanyData struct {
			domain.CompanyProfile
			Intelligence map[string]any `json:"intelligence"`
		} `json:"companyData"`
	}
	if err := decode(w, r, &body); err != nil || body.CompanyData.Name == "" {
		Error(w, http.StatusBadRequest, "companyData with a name is required")
		return
	}

	cfg, err := h.tenant.ApplyCompanyData(body.CompanyData.CompanyProfile, body.CompanyData.Intelligence)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
}

// CurrentConfig returns the full tenant configuration.
func (h *AdminHandler) CurrentConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.tenant.Load()
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, cfg)
}

// LoadTranscript mines a pasted transcript for company intelligence and
// accumulates the facts into the tenant configuration.
func (h *AdminHandler) LoadTranscript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transcript string `json:"transcript"`
	}
	if err := decode(w, r, &body); err != nil || body.Transcript == "" {
		Error(w, http.StatusBadRequest, "transcript is required")
		return
	}

	facts, err := h.analyzer.Analyze(r.Context(), body.Transcript, analysis.KindExtract, analysis.CallContext{})
	if err != nil {
		Fail(w, err)
		return
	}
	if _, parseErr := facts["parseError"]; !parseErr {
		if _, err := h.tenant.MergeIntelligence(facts); err != nil {
			Fail(w, err)
			return
		}
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "intelligence": facts})
}

// UpdateConfig deep-merges a partial configuration onto the stored one.
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := decode(w, r, &partial); err != nil || len(partial) == 0 {
		Error(w, http.StatusBadRequest, "config payload is required")
		return
	}

	cfg, err := h.tenant.Merge(partial)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
}
