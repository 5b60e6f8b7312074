package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/prompt"
	"github.com/dialcoach/dialcoach/internal/retell"
	"github.com/dialcoach/dialcoach/internal/template"
	"github.com/go-chi/chi/v5"
)

// CallHandler handles the training-call lifecycle endpoints.
type CallHandler struct {
	*Handler
}

// NewCallHandler creates a call handler.
func NewCallHandler(base *Handler) *CallHandler {
	return &CallHandler{Handler: base}
}

// RegisterRoutes registers call routes.
func (h *CallHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/calls", func(r chi.Router) {
		r.Post("/create-training-call", h.Create)
		r.Post("/end", h.End)
		r.Get("/status/{callID}", h.Status)
		r.Get("/transcript/{callID}", h.Transcript)
		r.Get("/history", h.History)
	})
}

type callInfo struct {
	CallID       string    `json:"callId"`
	ScenarioID   string    `json:"scenarioId"`
	ScenarioName string    `json:"scenarioName,omitempty"`
	StartTime    time.Time `json:"startTime"`
	Duration     float64   `json:"duration,omitempty"`
}

func sessionInfo(s *domain.CallSession) callInfo {
	info := callInfo{CallID: s.CallID, ScenarioID: s.ScenarioID, StartTime: s.StartTime}
	if s.Scenario != nil {
		info.ScenarioName = s.Scenario.Name
	}
	return info
}

// Create provisions a voice agent for the scenario, opens a web call and
// registers the session. The response carries everything the browser needs
// to join the call.
func (h *CallHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ScenarioID string           `json:"scenarioId"`
		Scenario   *domain.Scenario `json:"scenario"`
	}
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An inline scenario overrides the stored one, so the client can test
	// unsaved edits.
	sc := body.Scenario
	if sc == nil {
		if body.ScenarioID == "" {
			Error(w, http.StatusBadRequest, "scenarioId is required")
			return
		}
		stored, err := h.scenarios.Get(body.ScenarioID)
		if err != nil {
			Fail(w, err)
			return
		}
		sc = stored
	} else if err := sc.Validate(); err != nil {
		Fail(w, err)
		return
	}

	cfg, err := h.tenant.Load()
	if err != nil {
		Fail(w, err)
		return
	}

	companyCtx := template.Context("company", cfg.Company)
	resolved := *sc
	resolved.SystemPrompt = template.Process(sc.SystemPrompt, companyCtx)
	resolved.OpeningLine = template.Process(sc.OpeningLine, companyCtx)

	voiceID := resolved.VoiceID
	if voiceID == "" {
		voiceID = cfg.Settings.DefaultVoiceID
	}

	agent, err := h.voice.CreateAgent(r.Context(), retell.AgentParams{
		Name:         resolved.Name,
		Prompt:       prompt.BuildAgentPrompt(&resolved, cfg.Company),
		VoiceID:      voiceID,
		FirstMessage: resolved.OpeningLine,
	})
	if err != nil {
		Fail(w, err)
		return
	}

	call, err := h.voice.CreateWebCall(r.Context(), agent.AgentID)
	if err != nil {
		// The agent is orphaned otherwise; cleanup is best-effort.
		h.voice.DeleteAgent(r.Context(), agent.AgentID)
		Fail(w, err)
		return
	}

	h.registry.Put(&domain.CallSession{
		CallID:     call.CallID,
		AgentID:    agent.AgentID,
		LLMID:      agent.LLMID,
		ScenarioID: resolved.ID,
		Scenario:   &resolved,
		Company:    cfg.Company,
		StartTime:  time.Now(),
	})

	JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"callId":      call.CallID,
		"agentId":     agent.AgentID,
		"accessToken": call.AccessToken,
		"sampleRate":  call.SampleRate,
	})
}

// End terminates the call at the provider, waits for the finalized
// transcript, persists the call record and removes the session. A duplicate
// end request observes a missing session and still returns the transcript.
func (h *CallHandler) End(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CallID string `json:"callId"`
	}
	if err := decode(w, r, &body); err != nil || body.CallID == "" {
		Error(w, http.StatusBadRequest, "callId is required")
		return
	}

	if err := h.voice.EndCall(r.Context(), body.CallID); err != nil {
		Fail(w, err)
		return
	}

	transcript, err := h.voice.WaitForTranscript(r.Context(), body.CallID)
	if err != nil {
		Fail(w, err)
		return
	}

	// The session is removed only once the provider has confirmed the end,
	// so a failed request leaves it in place for the client's retry.
	sess := h.registry.Delete(body.CallID)

	var info *callInfo
	if sess != nil {
		h.voice.DeleteAgent(r.Context(), sess.AgentID)

		i := sessionInfo(sess)
		i.Duration = transcript.Duration
		info = &i

		rec := recordFrom(sess, transcript)
		if err := h.calls.SaveCall(r.Context(), rec); err != nil {
			// History is ancillary; the trainee still gets their transcript.
			slog.Warn("Failed to persist call record", "call_id", body.CallID, "error", err)
		}
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"callId":     body.CallID,
		"transcript": transcript,
		"callInfo":   info,
	})
}

// Status reports the registry entry for an in-flight call.
func (h *CallHandler) Status(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	sess := h.registry.Get(callID)
	if sess == nil {
		Error(w, http.StatusNotFound, "no active call with id "+callID)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "callInfo": sessionInfo(sess)})
}

// Transcript fetches the provider's current transcript for a call without
// ending it.
func (h *CallHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	transcript, err := h.voice.GetTranscript(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "transcript": transcript})
}

// History lists recently completed calls with their scorecards.
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.calls.ListRecent(r.Context(), 50)
	if err != nil {
		Fail(w, err)
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		entry := map[string]any{
			"callId":       rec.CallID,
			"scenarioId":   rec.ScenarioID,
			"scenarioName": rec.ScenarioName,
			"startedAt":    rec.StartedAt,
			"endedAt":      rec.EndedAt,
			"durationSec":  rec.DurationSec,
			"status":       rec.Status,
		}
		if rec.AnalysisJSON != "" {
			var analysis map[string]any
			if err := json.Unmarshal([]byte(rec.AnalysisJSON), &analysis); err == nil {
				entry["analysis"] = analysis
			}
		}
		out = append(out, entry)
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "calls": out})
}

func recordFrom(sess *domain.CallSession, t *domain.Transcript) *domain.CallRecord {
	rec := &domain.CallRecord{
		CallID:              sess.CallID,
		AgentID:             sess.AgentID,
		ScenarioID:          sess.ScenarioID,
		StartedAt:           sess.StartTime,
		EndedAt:             time.Now(),
		DurationSec:         t.Duration,
		Status:              t.CallStatus,
		DisconnectionReason: t.DisconnectionReason,
		TranscriptRaw:       t.Raw,
	}
	if sess.Scenario != nil {
		rec.ScenarioName = sess.Scenario.Name
	}
	if turns, err := json.Marshal(t.Turns); err == nil {
		rec.TranscriptJSON = string(turns)
	}
	return rec
}
