package domain

import (
	"fmt"
	"strings"
	"time"
)

// Persona describes the customer the voice agent roleplays during a scenario.
type Persona struct {
	Personality          string   `json:"personality,omitempty"`
	EmotionalState       string   `json:"emotionalState,omitempty"`
	Goals                []string `json:"goals,omitempty"`
	EscalationTriggers   []string `json:"escalationTriggers,omitempty"`
	DeescalationTriggers []string `json:"deescalationTriggers,omitempty"`
	KeyPoints            []string `json:"keyPoints,omitempty"`
	ResolutionConditions []string `json:"resolutionConditions,omitempty"`
}

// Scenario is a reusable definition of a customer persona and situation
// used to configure a simulated training call.
//
// SystemPrompt, Situation and CustomerBackground may contain {{dotted.path}}
// template tokens resolved against the tenant's company context.
type Scenario struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	SystemPrompt       string    `json:"systemPrompt"`
	Situation          string    `json:"situation,omitempty"`
	CustomerBackground string    `json:"customerBackground,omitempty"`
	Persona            Persona   `json:"persona"`
	VoiceID            string    `json:"voiceId,omitempty"`
	OpeningLine        string    `json:"openingLine,omitempty"`
	IsCustom           bool      `json:"isCustom"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Validate checks that the fields required to run a call are present.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(s.SystemPrompt) == "" {
		return fmt.Errorf("%w: systemPrompt is required", ErrValidation)
	}
	return nil
}

// Voice is one entry in the curated voice catalog exposed to the client.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Accent      string `json:"accent,omitempty"`
	Description string `json:"description,omitempty"`
}
