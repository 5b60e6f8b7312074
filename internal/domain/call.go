package domain

import "time"

// Transcript roles. The provisioned voice agent roleplays the customer, so the
// provider's "Agent" speaker maps to RoleCustomer and "User" to RoleCSR.
const (
	RoleCustomer = "customer"
	RoleCSR      = "csr"
)

// TranscriptTurn is a single utterance in a parsed call transcript.
type TranscriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the raw provider transcript plus its parsed structured form.
type Transcript struct {
	Raw                 string           `json:"raw"`
	Turns               []TranscriptTurn `json:"formatted"`
	Duration            float64          `json:"duration"`
	CallStatus          string           `json:"callStatus,omitempty"`
	DisconnectionReason string           `json:"disconnectionReason,omitempty"`
}

// CallSession is the ephemeral in-memory bookkeeping for an in-flight call.
// It exists only between call creation and call end, owned by this process.
type CallSession struct {
	CallID     string         `json:"callId"`
	AgentID    string         `json:"agentId"`
	LLMID      string         `json:"llmId,omitempty"`
	ScenarioID string         `json:"scenarioId"`
	Scenario   *Scenario      `json:"scenario,omitempty"`
	Company    CompanyProfile `json:"company"`
	StartTime  time.Time      `json:"startTime"`
}

// CallRecord is the persisted history row for a completed call. The analysis
// column is filled in later, when the client requests a scorecard.
type CallRecord struct {
	CallID              string    `json:"callId"`
	AgentID             string    `json:"agentId"`
	ScenarioID          string    `json:"scenarioId"`
	ScenarioName        string    `json:"scenarioName"`
	StartedAt           time.Time `json:"startedAt"`
	EndedAt             time.Time `json:"endedAt"`
	DurationSec         float64   `json:"durationSec"`
	Status              string    `json:"status,omitempty"`
	DisconnectionReason string    `json:"disconnectionReason,omitempty"`
	TranscriptRaw       string    `json:"transcriptRaw,omitempty"`
	TranscriptJSON      string    `json:"-"`
	AnalysisJSON        string    `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
}
