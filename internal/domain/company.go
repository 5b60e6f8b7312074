package domain

// BrandColors holds the tenant's palette as CSS color strings.
type BrandColors struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
}

// Pricing holds the tenant's headline price points as display strings.
type Pricing struct {
	Initial   string `json:"initial,omitempty"`
	Monthly   string `json:"monthly,omitempty"`
	Quarterly string `json:"quarterly,omitempty"`
}

// CompanyProfile is the tenant's branding and business facts, injected into
// prompts via template substitution.
type CompanyProfile struct {
	Name         string      `json:"name,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Website      string      `json:"website,omitempty"`
	LogoURL      string      `json:"logoUrl,omitempty"`
	Colors       BrandColors `json:"colors,omitempty"`
	ServiceAreas []string    `json:"serviceAreas,omitempty"`
	Services     []string    `json:"services,omitempty"`
	Pricing      Pricing     `json:"pricing,omitempty"`
	Guarantees   []string    `json:"guarantees,omitempty"`
	ValueProps   []string    `json:"valueProps,omitempty"`
	Hours        string      `json:"hours,omitempty"`
}

// TenantSettings are process-wide behavioral settings for the tenant.
type TenantSettings struct {
	DefaultVoiceID   string `json:"defaultVoiceId,omitempty"`
	CallTimeoutSec   int    `json:"callTimeout,omitempty"`
	AnalyticsEnabled bool   `json:"analyticsEnabled"`
}

// TenantConfig is the single tenant-wide configuration record.
// ExtractedIntelligence accumulates facts mined from transcripts and websites.
type TenantConfig struct {
	Company               CompanyProfile `json:"company"`
	Settings              TenantSettings `json:"settings"`
	ExtractedIntelligence map[string]any `json:"extractedIntelligence,omitempty"`
}
