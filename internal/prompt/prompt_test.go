package prompt

import (
	"strings"
	"testing"

	"github.com/dialcoach/dialcoach/internal/domain"
)

func TestBuildAgentPrompt_SubstitutesDefaults(t *testing.T) {
	s := &domain.Scenario{SystemPrompt: "You are a caller."}

	got := BuildAgentPrompt(s, domain.CompanyProfile{})

	if !strings.Contains(got, "Average customer") {
		t.Error("Expected default personality")
	}
	if !strings.Contains(got, "Neutral") {
		t.Error("Expected default emotional state")
	}
	if !strings.Contains(got, "the pest control company") {
		t.Error("Expected default company name")
	}
	if !strings.HasPrefix(got, "You are a caller.") {
		t.Errorf("Expected scenario prompt first, got %q", got[:40])
	}
}

func TestBuildAgentPrompt_UsesCompanyFacts(t *testing.T) {
	s := &domain.Scenario{
		SystemPrompt: "You are angry.",
		Persona: domain.Persona{
			Personality:        "Gruff",
			EmotionalState:     "Angry",
			EscalationTriggers: []string{"being put on hold"},
		},
	}
	company := domain.CompanyProfile{
		Name:       "Apex Pest Solutions",
		Pricing:    domain.Pricing{Quarterly: "$129"},
		Services:   []string{"Termite treatment", "Rodent exclusion"},
		Guarantees: []string{"Free re-service between visits", "Second guarantee"},
	}

	got := BuildAgentPrompt(s, company)

	for _, want := range []string{
		"Apex Pest Solutions",
		"$129",
		"Termite treatment, Rodent exclusion",
		"Free re-service between visits",
		"being put on hold",
		"Gruff",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
	// Only the first guarantee is quoted.
	if strings.Contains(got, "Second guarantee") {
		t.Error("Expected only the first guarantee in the prompt")
	}
}

func TestBuildCoachingPrompt_EmbedsTranscriptAndSchema(t *testing.T) {
	p := BuildCoachingPrompt("customer: Hi\ncsr: Hello", CoachingContext{
		ScenarioName: "Price Shopper",
		CompanyName:  "Apex",
		CallDuration: 92,
	})

	if p.System == "" {
		t.Error("Expected non-empty system prompt")
	}
	for _, want := range []string{"Price Shopper", "customer: Hi", "overallScore", "nextSteps", "92 seconds"} {
		if !strings.Contains(p.User, want) {
			t.Errorf("Expected user prompt to contain %q", want)
		}
	}
}

func TestBuildSentimentPrompt_Schema(t *testing.T) {
	p := BuildSentimentPrompt("I am furious.")
	if !strings.Contains(p.User, `"sentiment"`) || !strings.Contains(p.User, `"confidence"`) {
		t.Errorf("Expected sentiment schema in user prompt, got %q", p.User)
	}
	if !strings.Contains(p.User, "I am furious.") {
		t.Error("Expected input text embedded")
	}
}

func TestBuildIntelligencePrompt_Schema(t *testing.T) {
	p := BuildIntelligencePrompt("We treat termites in Springfield.")
	for _, want := range []string{"companyName", "serviceAreas", "pricing", "We treat termites in Springfield."} {
		if !strings.Contains(p.User, want) {
			t.Errorf("Expected intelligence prompt to contain %q", want)
		}
	}
}
