package models

// ProviderStatusGoldCard marks providers whose uploads bypass adjudication.
const ProviderStatusGoldCard = "GOLD_CARD"

// Provider is a referring clinician record. Read-only from the pipeline's
// perspective.
type Provider struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	ApprovalRate float64 `json:"approval_rate"`
	Exemption    string  `json:"exemption,omitempty"`
}

// IsGoldCard reports whether the provider is exempt from automated review.
func (p *Provider) IsGoldCard() bool {
	return p != nil && p.Status == ProviderStatusGoldCard
}
