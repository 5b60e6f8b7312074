package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/go-chi/chi/v5"
)

// AnalysisHandler handles transcript scoring and sentiment endpoints.
type AnalysisHandler struct {
	*Handler
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(base *Handler) *AnalysisHandler {
	return &AnalysisHandler{Handler: base}
}

// RegisterRoutes registers analysis routes.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analysis", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Post("/sentiment", h.Sentiment)
	})
}

// Analyze scores a call transcript and returns the coaching scorecard. When
// the request names a persisted call, the scorecard is attached to its
// history record.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transcript   string  `json:"transcript"`
		CallID       string  `json:"callId"`
		CallDuration float64 `json:"callDuration"`
		Scenario     *struct {
			Name      string `json:"name"`
			Situation string `json:"situation"`
		} `json:"scenario"`
	}
	if err := decode(w, r, &body); err != nil || body.Transcript == "" {
		Error(w, http.StatusBadRequest, "transcript is required")
		return
	}

	callCtx := analysis.CallContext{CallDuration: body.CallDuration}
	if body.Scenario != nil {
		callCtx.ScenarioName = body.Scenario.Name
		callCtx.Situation = body.Scenario.Situation
	}
	if cfg, err := h.tenant.Load(); err == nil {
		callCtx.CompanyName = cfg.Company.Name
	}

	result, err := h.analyzer.Analyze(r.Context(), body.Transcript, analysis.KindCoaching, callCtx)
	if err != nil {
		Fail(w, err)
		return
	}

	if body.CallID != "" {
		if _, parseErr := result["parseError"]; !parseErr {
			if data, err := json.Marshal(result); err == nil {
				if err := h.calls.AttachAnalysis(r.Context(), body.CallID, string(data)); err != nil {
					slog.Warn("Failed to attach analysis to call record", "call_id", body.CallID, "error", err)
				}
			}
		}
	}

	JSON(w, http.StatusOK, map[string]any{"success": true, "analysis": result})
}

// Sentiment classifies a piece of text. Malformed model output degrades to
// an "unknown" classification with the raw reply attached.
func (h *AnalysisHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, &body); err != nil || body.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), body.Text, analysis.KindSentiment, analysis.CallContext{})
	if err != nil {
		Fail(w, err)
		return
	}

	resp := map[string]any{"success": true, "sentiment": "unknown", "confidence": 0.0}
	if s, ok := result["sentiment"].(string); ok {
		resp["sentiment"] = s
	}
	if c, ok := result["confidence"].(float64); ok {
		resp["confidence"] = c
	}
	if raw, ok := result["raw"]; ok {
		resp["raw"] = raw
	}
	JSON(w, http.StatusOK, resp)
}
