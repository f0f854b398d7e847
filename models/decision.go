package models

import "strings"

// Status is the adjudication state shared by decisions and patient cases.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusApproved       Status = "APPROVED"
	StatusDenied         Status = "DENIED"
	StatusActionRequired Status = "ACTION_REQUIRED"
	StatusUnknown        Status = "UNKNOWN"
	StatusAutoApproved   Status = "AUTO_APPROVED"
)

// NormalizeStatus maps a free-form status string from the model onto the
// decision enum. Anything outside the three concrete outcomes collapses to
// UNKNOWN; it never passes an unrecognized value through.
func NormalizeStatus(raw string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusApproved:
		return StatusApproved
	case StatusDenied:
		return StatusDenied
	case StatusActionRequired:
		return StatusActionRequired
	default:
		return StatusUnknown
	}
}

// PolicyDecision is the validated outcome of evaluating a document against a
// policy. Status is always one of APPROVED, DENIED, ACTION_REQUIRED or UNKNOWN.
type PolicyDecision struct {
	Status                Status `json:"status"`
	Reason                string `json:"reason"`
	Summary               string `json:"summary"`
	EvidenceQuote         string `json:"evidence_quote"`
	RFIDraft              string `json:"rfi_draft"`
	CriteriaMet           bool   `json:"criteria_met"`
	DocumentationComplete bool   `json:"documentation_complete"`
	PolicyMatch           bool   `json:"policy_match"`
	MissingCriteria       string `json:"missing_criteria"`
	MissingDocumentation  string `json:"missing_documentation"`
}

// AnalysisResult is the full pipeline output: the decision plus the entities
// recognized in the document and a placeholder structured-record projection.
type AnalysisResult struct {
	PolicyDecision
	EntitiesDetected []string       `json:"entities_detected"`
	FHIRJSON         map[string]any `json:"fhir_json"`
}
