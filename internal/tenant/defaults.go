package tenant

import "github.com/dialcoach/dialcoach/internal/domain"

// DefaultConfig is the hard-coded baseline a fresh tenant starts from. Saved
// configs are merged onto it, so adding a field here makes it appear in old
// installs on next load.
func DefaultConfig() *domain.TenantConfig {
	return &domain.TenantConfig{
		Company: domain.CompanyProfile{
			Name:    "Apex Pest Solutions",
			Phone:   "(555) 010-4400",
			Website: "https://example.com",
			Colors: domain.BrandColors{
				Primary:   "#1f6f43",
				Secondary: "#f4f1ea",
				Accent:    "#d97706",
			},
			ServiceAreas: []string{"Springfield", "Riverton", "Oak Grove"},
			Services:     []string{"General pest control", "Termite treatment", "Rodent exclusion", "Mosquito reduction"},
			Pricing: domain.Pricing{
				Initial:   "$149",
				Monthly:   "$49",
				Quarterly: "$129",
			},
			Guarantees: []string{"Free re-service between scheduled visits"},
			ValueProps: []string{"Locally owned and operated", "Licensed and insured technicians"},
			Hours:      "Mon-Fri 8am-6pm, Sat 9am-1pm",
		},
		Settings: domain.TenantSettings{
			DefaultVoiceID:   "11labs-Adrian",
			CallTimeoutSec:   600,
			AnalyticsEnabled: true,
		},
	}
}
