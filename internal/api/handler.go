// Package api provides the HTTP handlers for the call-training API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/retell"
	"github.com/dialcoach/dialcoach/internal/scrape"
	"github.com/dialcoach/dialcoach/internal/session"
	"github.com/dialcoach/dialcoach/internal/store"
)

// maxRequestBodySize caps request bodies (pasted transcripts included).
const maxRequestBodySize = 1 << 20 // 1MB

// ScenarioRepo is the scenario repository surface the handlers consume.
type ScenarioRepo interface {
	List() ([]domain.Scenario, error)
	Get(id string) (*domain.Scenario, error)
	Create(s domain.Scenario) (*domain.Scenario, error)
	Update(id string, patch map[string]any) (*domain.Scenario, error)
	Delete(id string) error
}

// TenantStore is the tenant configuration surface the handlers consume.
type TenantStore interface {
	Load() (*domain.TenantConfig, error)
	Merge(partial map[string]any) (*domain.TenantConfig, error)
	ApplyCompanyData(company domain.CompanyProfile, intelligence map[string]any) (*domain.TenantConfig, error)
	MergeIntelligence(facts map[string]any) (*domain.TenantConfig, error)
}

// VoiceAgent is the voice-provider surface the call handlers consume.
type VoiceAgent interface {
	CreateAgent(ctx context.Context, p retell.AgentParams) (*retell.Agent, error)
	CreateWebCall(ctx context.Context, agentID string) (*retell.WebCall, error)
	EndCall(ctx context.Context, callID string) error
	GetTranscript(ctx context.Context, callID string) (*domain.Transcript, error)
	WaitForTranscript(ctx context.Context, callID string) (*domain.Transcript, error)
	DeleteAgent(ctx context.Context, agentID string) bool
}

// Analyzer is the transcript-analysis surface the handlers consume.
type Analyzer interface {
	Analyze(ctx context.Context, text, kind string, callCtx analysis.CallContext) (map[string]any, error)
}

// SiteScraper is the website-scraping surface the admin handlers consume.
type SiteScraper interface {
	Scrape(ctx context.Context, url string) (*scrape.CompanyData, error)
}

// Handler provides common handler dependencies and utilities.
type Handler struct {
	scenarios ScenarioRepo
	tenant    TenantStore
	registry  session.Registry
	voice     VoiceAgent
	analyzer  Analyzer
	scraper   SiteScraper
	calls     store.CallStore
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(scenarios ScenarioRepo, tenant TenantStore, registry session.Registry, voice VoiceAgent, analyzer Analyzer, scraper SiteScraper, calls store.CallStore) *Handler {
	return &Handler{
		scenarios: scenarios,
		tenant:    tenant,
		registry:  registry,
		voice:     voice,
		analyzer:  analyzer,
		scraper:   scraper,
		calls:     calls,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail maps a domain error to its HTTP status and writes it.
func Fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads a JSON request body into v with a size cap.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation
	}
	return nil
}
