package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/retell"
	"github.com/dialcoach/dialcoach/internal/scenario"
	"github.com/dialcoach/dialcoach/internal/scrape"
	"github.com/dialcoach/dialcoach/internal/session"
	"github.com/dialcoach/dialcoach/internal/tenant"
	"github.com/go-chi/chi/v5"
)

type fakeVoice struct {
	mu            sync.Mutex
	lastPrompt    string
	lastVoiceID   string
	endCalled     []string
	failEnds      int
	deletedAgents []string
	transcript    *domain.Transcript
}

func (f *fakeVoice) CreateAgent(_ context.Context, p retell.AgentParams) (*retell.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrompt = p.Prompt
	f.lastVoiceID = p.VoiceID
	return &retell.Agent{AgentID: "agent-1", LLMID: "llm-1"}, nil
}

func (f *fakeVoice) CreateWebCall(_ context.Context, agentID string) (*retell.WebCall, error) {
	return &retell.WebCall{CallID: "call-1", AccessToken: "tok", SampleRate: 24000}, nil
}

func (f *fakeVoice) EndCall(_ context.Context, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endCalled = append(f.endCalled, callID)
	if f.failEnds > 0 {
		f.failEnds--
		return errors.New("stop call: unexpected status 500")
	}
	return nil
}

func (f *fakeVoice) GetTranscript(_ context.Context, _ string) (*domain.Transcript, error) {
	return f.currentTranscript(), nil
}

func (f *fakeVoice) WaitForTranscript(_ context.Context, _ string) (*domain.Transcript, error) {
	return f.currentTranscript(), nil
}

func (f *fakeVoice) DeleteAgent(_ context.Context, agentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedAgents = append(f.deletedAgents, agentID)
	return true
}

func (f *fakeVoice) currentTranscript() *domain.Transcript {
	if f.transcript != nil {
		return f.transcript
	}
	return &domain.Transcript{
		Raw: "Agent: Hi\nUser: Hello",
		Turns: []domain.TranscriptTurn{
			{Role: domain.RoleCustomer, Content: "Hi"},
			{Role: domain.RoleCSR, Content: "Hello"},
		},
		Duration:   92,
		CallStatus: "ended",
	}
}

type fakeAnalyzer struct {
	result   map[string]any
	lastKind string
	lastText string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text, kind string, _ analysis.CallContext) (map[string]any, error) {
	f.lastKind = kind
	f.lastText = text
	if f.result != nil {
		return f.result, nil
	}
	return map[string]any{"overallScore": float64(82)}, nil
}

type fakeScraper struct {
	data *scrape.CompanyData
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (*scrape.CompanyData, error) {
	if f.data != nil {
		return f.data, nil
	}
	return &scrape.CompanyData{SourceURL: url, LogoURL: "https://x/logo.png"}, nil
}

type fakeCallStore struct {
	mu       sync.Mutex
	records  map[string]*domain.CallRecord
	analyses map[string]string
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{records: map[string]*domain.CallRecord{}, analyses: map[string]string{}}
}

func (f *fakeCallStore) SaveCall(_ context.Context, rec *domain.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[rec.CallID] = &cp
	return nil
}

func (f *fakeCallStore) GetCall(_ context.Context, callID string) (*domain.CallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.records[callID]
	if rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeCallStore) ListRecent(_ context.Context, _ int) ([]*domain.CallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CallRecord
	for _, rec := range f.records {
		cp := *rec
		if a, ok := f.analyses[rec.CallID]; ok {
			cp.AnalysisJSON = a
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCallStore) AttachAnalysis(_ context.Context, callID, analysisJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[callID]; !ok {
		return fmt.Errorf("call %s: %w", callID, domain.ErrNotFound)
	}
	f.analyses[callID] = analysisJSON
	return nil
}

func (f *fakeCallStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (f *fakeCallStore) Ping(_ context.Context) error                              { return nil }
func (f *fakeCallStore) Close() error                                              { return nil }

type testEnv struct {
	router   chi.Router
	voice    *fakeVoice
	analyzer *fakeAnalyzer
	calls    *fakeCallStore
	registry *session.MemoryRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	tenantStore := tenant.NewStore(filepath.Join(dir, "config.json"))
	repo := scenario.NewRepository(filepath.Join(dir, "scenarios.json"), tenantStore)
	registry := session.NewMemoryRegistry()
	voice := &fakeVoice{}
	analyzer := &fakeAnalyzer{}
	scraper := &fakeScraper{}
	calls := newFakeCallStore()

	base := NewHandler(repo, tenantStore, registry, voice, analyzer, scraper, calls)
	r := chi.NewRouter()
	NewScenarioHandler(base).RegisterRoutes(r)
	NewCallHandler(base).RegisterRoutes(r)
	NewAnalysisHandler(base).RegisterRoutes(r)
	NewAdminHandler(base).RegisterRoutes(r)
	NewHealthHandler(base).RegisterRoutes(r)

	return &testEnv{router: r, voice: voice, analyzer: analyzer, calls: calls, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("Decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func TestScenarioLifecycle(t *testing.T) {
	e := newTestEnv(t)

	// Create.
	w, resp := e.do(t, http.MethodPost, "/api/scenarios", map[string]any{
		"name":         "Angry Customer",
		"systemPrompt": "You are angry.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Create: expected 200, got %d: %v", w.Code, resp)
	}
	created := resp["scenario"].(map[string]any)
	id := created["id"].(string)
	if !strings.HasPrefix(id, "custom-") || created["isCustom"] != true {
		t.Errorf("Unexpected created scenario %v", created)
	}

	// List includes it.
	w, resp = e.do(t, http.MethodGet, "/api/scenarios", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", w.Code)
	}
	found := false
	for _, raw := range resp["scenarios"].([]any) {
		if raw.(map[string]any)["id"] == id {
			found = true
		}
	}
	if !found {
		t.Error("Expected created scenario in list")
	}

	// Update.
	w, resp = e.do(t, http.MethodPut, "/api/scenarios/"+id, map[string]any{"name": "Very Angry Customer"})
	if w.Code != http.StatusOK {
		t.Fatalf("Update: expected 200, got %d: %v", w.Code, resp)
	}
	updated := resp["scenario"].(map[string]any)
	if updated["name"] != "Very Angry Customer" {
		t.Errorf("Expected renamed scenario, got %v", updated["name"])
	}
	if updated["updatedAt"] == created["updatedAt"] {
		t.Error("Expected updatedAt to change")
	}

	// Delete, then get 404.
	w, _ = e.do(t, http.MethodDelete, "/api/scenarios/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Delete: expected 200, got %d", w.Code)
	}
	w, _ = e.do(t, http.MethodGet, "/api/scenarios/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Get after delete: expected 404, got %d", w.Code)
	}
}

func TestCreateScenario_MissingPromptIs400(t *testing.T) {
	e := newTestEnv(t)
	w, resp := e.do(t, http.MethodPost, "/api/scenarios", map[string]any{"name": "No prompt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %v", w.Code, resp)
	}
	if resp["error"] == nil {
		t.Error("Expected error message")
	}
}

func TestVoicesEndpoint(t *testing.T) {
	e := newTestEnv(t)
	w, resp := e.do(t, http.MethodGet, "/api/scenarios/meta/voices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(resp["voices"].([]any)) == 0 {
		t.Error("Expected curated voices")
	}
}

func TestCreateTrainingCall(t *testing.T) {
	e := newTestEnv(t)

	w, resp := e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{
		"scenarioId": "price-shopper",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", w.Code, resp)
	}
	if resp["callId"] != "call-1" || resp["agentId"] != "agent-1" || resp["accessToken"] != "tok" {
		t.Errorf("Unexpected response %v", resp)
	}
	if resp["sampleRate"] != float64(24000) {
		t.Errorf("Expected sampleRate, got %v", resp["sampleRate"])
	}

	// Session registered.
	if e.registry.Get("call-1") == nil {
		t.Error("Expected registered session")
	}

	// The agent prompt got the resolved company name, not the template token.
	if strings.Contains(e.voice.lastPrompt, "{{company.name}}") {
		t.Error("Expected systemPrompt resolved before provisioning")
	}
	if !strings.Contains(e.voice.lastPrompt, "Apex Pest Solutions") {
		t.Errorf("Expected company name in prompt, got %q", e.voice.lastPrompt)
	}
}

func TestCreateTrainingCall_UnknownScenarioIs404(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestCreateTrainingCall_MissingScenarioIs400(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestEndCall_FullLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "price-shopper"})

	w, resp := e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", w.Code, resp)
	}

	transcript := resp["transcript"].(map[string]any)
	if transcript["duration"] != float64(92) {
		t.Errorf("Unexpected transcript %v", transcript)
	}
	info := resp["callInfo"].(map[string]any)
	if info["scenarioName"] != "Price Shopper" {
		t.Errorf("Unexpected callInfo %v", info)
	}

	// Session removed, provider told to end, agent cleaned up.
	if e.registry.Get("call-1") != nil {
		t.Error("Expected session removed")
	}
	if len(e.voice.endCalled) != 1 || e.voice.endCalled[0] != "call-1" {
		t.Errorf("Expected provider end call, got %v", e.voice.endCalled)
	}
	if len(e.voice.deletedAgents) != 1 || e.voice.deletedAgents[0] != "agent-1" {
		t.Errorf("Expected agent cleanup, got %v", e.voice.deletedAgents)
	}

	// Call record persisted.
	rec, _ := e.calls.GetCall(context.Background(), "call-1")
	if rec == nil || rec.ScenarioName != "Price Shopper" || rec.DurationSec != 92 {
		t.Errorf("Unexpected persisted record %+v", rec)
	}
}

func TestEndCall_DuplicateEndIsNonFatal(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "price-shopper"})
	e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})

	w, resp := e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected duplicate end to succeed, got %d", w.Code)
	}
	if resp["callInfo"] != nil {
		t.Errorf("Expected nil callInfo for duplicate end, got %v", resp["callInfo"])
	}
}

func TestEndCall_ProviderFailureKeepsSession(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "price-shopper"})
	e.voice.failEnds = 1

	w, _ := e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 on provider failure, got %d", w.Code)
	}
	if e.registry.Get("call-1") == nil {
		t.Fatal("Expected session kept after provider failure")
	}

	// The retry completes the bookkeeping the failed attempt could not.
	w, resp := e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected retry to succeed, got %d: %v", w.Code, resp)
	}
	if resp["callInfo"] == nil {
		t.Error("Expected callInfo on retry")
	}
	if rec, _ := e.calls.GetCall(context.Background(), "call-1"); rec == nil {
		t.Error("Expected call record persisted by retry")
	}
	if len(e.voice.deletedAgents) != 1 || e.voice.deletedAgents[0] != "agent-1" {
		t.Errorf("Expected agent cleanup on retry, got %v", e.voice.deletedAgents)
	}
}

func TestEndCall_MissingCallIDIs400(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodPost, "/api/calls/end", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestCallStatus(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodGet, "/api/calls/status/call-1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown call, got %d", w.Code)
	}

	e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "price-shopper"})
	w, resp := e.do(t, http.MethodGet, "/api/calls/status/call-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp["callInfo"].(map[string]any)["scenarioId"] != "price-shopper" {
		t.Errorf("Unexpected callInfo %v", resp["callInfo"])
	}
}

func TestCallHistory_IncludesAnalysis(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/calls/create-training-call", map[string]any{"scenarioId": "price-shopper"})
	e.do(t, http.MethodPost, "/api/calls/end", map[string]any{"callId": "call-1"})
	e.do(t, http.MethodPost, "/api/analysis/analyze", map[string]any{
		"transcript": "customer: Hi\ncsr: Hello",
		"callId":     "call-1",
	})

	w, resp := e.do(t, http.MethodGet, "/api/calls/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	calls := resp["calls"].([]any)
	if len(calls) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(calls))
	}
	entry := calls[0].(map[string]any)
	if entry["analysis"].(map[string]any)["overallScore"] != float64(82) {
		t.Errorf("Expected attached scorecard, got %v", entry["analysis"])
	}
}

func TestAnalyze_RequiresTranscript(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodPost, "/api/analysis/analyze", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestAnalyze_ReturnsScorecard(t *testing.T) {
	e := newTestEnv(t)
	w, resp := e.do(t, http.MethodPost, "/api/analysis/analyze", map[string]any{
		"transcript":   "customer: Hi\ncsr: Hello",
		"callDuration": 92,
		"scenario":     map[string]any{"name": "Price Shopper"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp["analysis"].(map[string]any)["overallScore"] != float64(82) {
		t.Errorf("Unexpected analysis %v", resp["analysis"])
	}
	if e.analyzer.lastKind != analysis.KindCoaching {
		t.Errorf("Expected coaching dispatch, got %q", e.analyzer.lastKind)
	}
}

func TestSentiment_Degrades(t *testing.T) {
	e := newTestEnv(t)
	e.analyzer.result = map[string]any{"raw": "I rambled", "parseError": true}

	w, resp := e.do(t, http.MethodPost, "/api/analysis/sentiment", map[string]any{"text": "hmm"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp["sentiment"] != "unknown" || resp["raw"] != "I rambled" {
		t.Errorf("Expected degraded sentiment, got %v", resp)
	}
}

func TestSentiment_Parses(t *testing.T) {
	e := newTestEnv(t)
	e.analyzer.result = map[string]any{"sentiment": "angry", "confidence": 0.9}

	w, resp := e.do(t, http.MethodPost, "/api/analysis/sentiment", map[string]any{"text": "furious"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp["sentiment"] != "angry" || resp["confidence"] != 0.9 {
		t.Errorf("Unexpected response %v", resp)
	}
}

func TestAdminScrapeAndApply(t *testing.T) {
	e := newTestEnv(t)

	w, resp := e.do(t, http.MethodPost, "/api/admin/scrape-company", map[string]any{"url": "example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("Scrape: expected 200, got %d", w.Code)
	}
	if resp["data"].(map[string]any)["logoUrl"] != "https://x/logo.png" {
		t.Errorf("Unexpected scrape data %v", resp["data"])
	}

	w, resp = e.do(t, http.MethodPost, "/api/admin/apply-company", map[string]any{
		"companyData": map[string]any{
			"name":         "Scraped Co",
			"intelligence": map[string]any{"source": "website"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Apply: expected 200, got %d: %v", w.Code, resp)
	}

	w, resp = e.do(t, http.MethodGet, "/api/admin/current-config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("CurrentConfig: expected 200, got %d", w.Code)
	}
	if resp["company"].(map[string]any)["name"] != "Scraped Co" {
		t.Errorf("Expected applied company, got %v", resp["company"])
	}
}

func TestAdminUpdateConfig(t *testing.T) {
	e := newTestEnv(t)
	w, resp := e.do(t, http.MethodPost, "/api/admin/update-config", map[string]any{
		"company": map[string]any{"phone": "555-9999"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	cfg := resp["config"].(map[string]any)
	company := cfg["company"].(map[string]any)
	if company["phone"] != "555-9999" {
		t.Errorf("Expected merged phone, got %v", company["phone"])
	}
	if company["name"] == "" {
		t.Error("Expected untouched defaults present")
	}
}

func TestAdminLoadTranscript(t *testing.T) {
	e := newTestEnv(t)
	e.analyzer.result = map[string]any{"services": []any{"termite treatment"}}

	w, resp := e.do(t, http.MethodPost, "/api/admin/load-transcript", map[string]any{
		"transcript": "We also do termite treatment.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if e.analyzer.lastKind != analysis.KindExtract {
		t.Errorf("Expected extract dispatch, got %q", e.analyzer.lastKind)
	}
	if resp["intelligence"] == nil {
		t.Error("Expected intelligence payload")
	}

	// Facts accumulated into the stored config.
	_, cfgResp := e.do(t, http.MethodGet, "/api/admin/current-config", nil)
	intel := cfgResp["extractedIntelligence"].(map[string]any)
	if intel["services"] == nil {
		t.Errorf("Expected merged intelligence, got %v", intel)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w, resp := e.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp["status"] != "ok" || resp["timestamp"] == nil {
		t.Errorf("Unexpected health payload %v", resp)
	}
}
