// Package prompt composes system prompts for the remote voice agent and
// analysis prompts for the transcript scorer. Pure functions, no I/O.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dialcoach/dialcoach/internal/domain"
)

// Pair is a system/user prompt pair for the LLM provider. The user prompt
// embeds the required JSON response schema; the model is expected to reply
// with JSON somewhere in its text, possibly fenced in a code block.
type Pair struct {
	System string
	User   string
}

// BuildAgentPrompt interpolates scenario persona fields and a slice of
// company data into the roleplay instructions for the voice agent. Every
// missing field gets a default, so this never fails to produce a usable
// prompt.
func BuildAgentPrompt(s *domain.Scenario, company domain.CompanyProfile) string {
	personality := orDefault(s.Persona.Personality, "Average customer")
	emotionalState := orDefault(s.Persona.EmotionalState, "Neutral")
	companyName := orDefault(company.Name, "the pest control company")
	quarterly := orDefault(company.Pricing.Quarterly, "$129")
	services := "general pest control"
	if len(company.Services) > 0 {
		services = strings.Join(company.Services, ", ")
	}
	guarantee := "satisfaction guaranteed"
	if len(company.Guarantees) > 0 {
		guarantee = company.Guarantees[0]
	}

	var b strings.Builder
	b.WriteString(s.SystemPrompt)
	b.WriteString("\n\n## Roleplay rules\n")
	fmt.Fprintf(&b, "You are roleplaying a CUSTOMER calling %s. The human you are talking to is a customer-service representative in training. Never break character, never mention that you are an AI, and never coach the representative.\n\n", companyName)
	fmt.Fprintf(&b, "Personality: %s\nEmotional state: %s\n", personality, emotionalState)
	if len(s.Persona.Goals) > 0 {
		fmt.Fprintf(&b, "Your goals: %s\n", strings.Join(s.Persona.Goals, "; "))
	}
	if len(s.Persona.EscalationTriggers) > 0 {
		fmt.Fprintf(&b, "You get MORE upset if: %s\n", strings.Join(s.Persona.EscalationTriggers, "; "))
	}
	if len(s.Persona.DeescalationTriggers) > 0 {
		fmt.Fprintf(&b, "You calm down if: %s\n", strings.Join(s.Persona.DeescalationTriggers, "; "))
	}
	if len(s.Persona.KeyPoints) > 0 {
		fmt.Fprintf(&b, "Work these points into the conversation naturally: %s\n", strings.Join(s.Persona.KeyPoints, "; "))
	}
	if len(s.Persona.ResolutionConditions) > 0 {
		fmt.Fprintf(&b, "You consider the call resolved when: %s\n", strings.Join(s.Persona.ResolutionConditions, "; "))
	}
	b.WriteString("\n## Company facts you may reference\n")
	fmt.Fprintf(&b, "Company: %s. Quarterly service price: %s. Services: %s. Guarantee: %s.\n", companyName, quarterly, services, guarantee)
	b.WriteString("\nSpeak naturally in short conversational turns. React to what the representative actually says.")
	return b.String()
}

// CoachingContext carries the call metadata fed into the coaching prompt.
type CoachingContext struct {
	ScenarioName string
	Situation    string
	CompanyName  string
	CallDuration float64
}

// BuildCoachingPrompt produces the scorecard prompt for a finished call.
func BuildCoachingPrompt(transcript string, ctx CoachingContext) Pair {
	scenarioName := orDefault(ctx.ScenarioName, "a customer-service call")
	companyName := orDefault(ctx.CompanyName, "the company")

	system := "You are an expert customer-service coach for home-services companies. " +
		"You score training calls where a representative handles a simulated customer. " +
		"Be specific, quote the transcript, and keep feedback actionable."

	var b strings.Builder
	fmt.Fprintf(&b, "Score this training call for a representative at %s.\n\n", companyName)
	fmt.Fprintf(&b, "Scenario: %s\n", scenarioName)
	if ctx.Situation != "" {
		fmt.Fprintf(&b, "Situation: %s\n", ctx.Situation)
	}
	if ctx.CallDuration > 0 {
		fmt.Fprintf(&b, "Call duration: %.0f seconds\n", ctx.CallDuration)
	}
	b.WriteString("\nTranscript (\"customer\" is the simulated caller, \"csr\" is the trainee):\n---\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n\nRespond with JSON matching this schema exactly:\n")
	b.WriteString(`{
  "overallScore": 0-100,
  "categories": {
    "greeting": {"score": 0-100, "feedback": "string", "quotedMoment": "string"},
    "empathy": {"score": 0-100, "feedback": "string", "quotedMoment": "string"},
    "discovery": {"score": 0-100, "feedback": "string", "quotedMoment": "string"},
    "solution": {"score": 0-100, "feedback": "string", "quotedMoment": "string"},
    "closing": {"score": 0-100, "feedback": "string", "quotedMoment": "string"}
  },
  "strengths": ["string"],
  "improvements": ["string"],
  "keyMoment": {"quote": "string", "why": "string"},
  "summary": "string",
  "nextSteps": ["string"]
}`)
	b.WriteString("\n\nReturn ONLY the JSON object.")
	return Pair{System: system, User: b.String()}
}

// BuildIntelligencePrompt produces the extraction prompt that turns scraped
// website text or a pasted transcript into structured company facts.
func BuildIntelligencePrompt(text string) Pair {
	system := "You extract structured business facts about home-services companies from unstructured text. " +
		"Only report facts that are actually present; never invent pricing or guarantees."

	var b strings.Builder
	b.WriteString("Extract company intelligence from the following text.\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\nRespond with JSON matching this schema:\n")
	b.WriteString(`{
  "companyName": "string or null",
  "phone": "string or null",
  "services": ["string"],
  "serviceAreas": ["string"],
  "pricing": {"initial": "string or null", "monthly": "string or null", "quarterly": "string or null"},
  "guarantees": ["string"],
  "valueProps": ["string"],
  "hours": "string or null",
  "notableFacts": ["string"]
}`)
	b.WriteString("\n\nReturn ONLY the JSON object.")
	return Pair{System: system, User: b.String()}
}

// BuildSentimentPrompt produces the quick sentiment classification prompt.
func BuildSentimentPrompt(text string) Pair {
	system := "You classify the emotional tone of customer-service text."

	var b strings.Builder
	b.WriteString("Classify the overall customer sentiment of this text.\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\nRespond with JSON matching this schema:\n")
	b.WriteString(`{"sentiment": "positive|neutral|negative|angry", "confidence": 0.0-1.0}`)
	b.WriteString("\n\nReturn ONLY the JSON object.")
	return Pair{System: system, User: b.String()}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
