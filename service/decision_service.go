package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Vishwas721/Prism/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DecisionEvaluator produces a validated policy decision for a document.
type DecisionEvaluator interface {
	Evaluate(ctx context.Context, policyText, documentText string, entities []string) (*models.PolicyDecision, error)
}

// contentGenerator is the completion-provider seam. Production wires the
// Gemini client; tests substitute a fake.
type contentGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ErrMissingEvaluationInput reports an empty policy or document text; the
// provider is never contacted for such input.
var ErrMissingEvaluationInput = errors.New("both policy text and document text are required")

const (
	defaultDecisionModel = "gemini-2.0-flash"

	// Low temperature keeps classification variance down across runs.
	decisionTemperature = 0.2

	degradedReasonPlaceholder = "Empty model response"
)

const decisionSystemPrompt = `You are a medical policy auditor. Compare the Patient Note against the Policy and classify the case. ` +
	`Assess separately whether the clinical criteria are satisfied and whether the documentation is complete, in addition to whether the note matches the policy at all. ` +
	`If the patient meets some criteria but specific required documentation (like X-rays or specific dates) is missing, return status ACTION_REQUIRED, name what is missing, and in rfi_draft write a polite, professional email to the referring provider requesting the specific missing document to satisfy the policy. ` +
	`For every decision you MUST extract the exact direct quote from the Patient Note that supports your finding and return it in evidence_quote. ` +
	`Respond with a single JSON object only - no prose, no markdown fences - containing exactly these fields: ` +
	`"status" ("APPROVED" | "DENIED" | "ACTION_REQUIRED"), "reason" (string), "summary" (string), "evidence_quote" (string), "rfi_draft" (string), ` +
	`"criteria_met" (boolean), "documentation_complete" (boolean), "policy_match" (boolean), "missing_criteria" (string), "missing_documentation" (string). ` +
	`Leave missing_criteria and missing_documentation empty when the corresponding boolean is true.`

// decisionSchema gates the model output before field decoding: reason must be
// a non-empty string and every other known field must carry its declared type.
// status is deliberately untyped here; its coercion to the enum happens in
// parseDecision so a non-string status degrades to UNKNOWN instead of
// discarding the rest of the payload.
var decisionSchema = jsonschema.MustCompileString("decision.json", `{
	"type": "object",
	"required": ["status", "reason"],
	"properties": {
		"status": {},
		"reason": {"type": "string", "minLength": 1},
		"summary": {"type": "string"},
		"evidence_quote": {"type": "string"},
		"rfi_draft": {"type": "string"},
		"criteria_met": {"type": "boolean"},
		"documentation_complete": {"type": "boolean"},
		"policy_match": {"type": "boolean"},
		"missing_criteria": {"type": "string"},
		"missing_documentation": {"type": "string"}
	}
}`)

// DecisionService evaluates a document against a policy through the
// completion provider and normalizes the free-text response into a typed
// decision. Content-shape problems never surface as errors: they collapse
// into an UNKNOWN decision so the pipeline always completes with a typed
// result. Only transport and auth failures propagate.
type DecisionService struct {
	generator contentGenerator
}

// DecisionServiceOption is a functional option for DecisionService.
type DecisionServiceOption func(*DecisionService)

// DecisionWithGeminiClient wires the Gemini client as the completion provider.
func DecisionWithGeminiClient(client *genai.Client, model string) DecisionServiceOption {
	if model == "" {
		model = defaultDecisionModel
	}
	return func(s *DecisionService) {
		s.generator = &geminiGenerator{client: client, model: model}
	}
}

// NewDecisionService creates a new decision service.
func NewDecisionService(opts ...DecisionServiceOption) *DecisionService {
	s := &DecisionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate compares the document against the policy and returns a decision
// whose status is always one of the four enum values.
func (s *DecisionService) Evaluate(ctx context.Context, policyText, documentText string, entities []string) (*models.PolicyDecision, error) {
	if strings.TrimSpace(policyText) == "" || strings.TrimSpace(documentText) == "" {
		return nil, ErrMissingEvaluationInput
	}
	if s.generator == nil {
		return nil, errors.New("completion provider not set")
	}

	raw, err := s.generator.Generate(ctx, decisionSystemPrompt, buildDecisionPrompt(policyText, documentText, entities))
	if err != nil {
		return nil, err
	}
	return parseDecision(raw), nil
}

// buildDecisionPrompt assembles the user message: policy, document, and the
// detected entity list when present.
func buildDecisionPrompt(policyText, documentText string, entities []string) string {
	var b strings.Builder
	b.WriteString("Policy:\n")
	b.WriteString(policyText)
	b.WriteString("\n\nPatient Note:\n")
	b.WriteString(documentText)
	if len(entities) > 0 {
		b.WriteString("\n\nDetected Entities:\n")
		b.WriteString(strings.Join(entities, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// normalizeModelJSON strips the markdown code fences the model sometimes
// wraps around its JSON despite instructions, then trims whitespace.
func normalizeModelJSON(raw string) string {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	}
	if strings.HasPrefix(content, "```") {
		content = content[len("```"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-len("```")]
	}
	return strings.TrimSpace(content)
}

// parseDecision validates the normalized response against the decision schema
// and decodes it. Any parse or validation failure yields a degraded UNKNOWN
// decision carrying the raw content as its reason.
func parseDecision(raw string) *models.PolicyDecision {
	content := normalizeModelJSON(raw)

	var payload any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return degradedDecision(content)
	}
	if err := decisionSchema.Validate(payload); err != nil {
		return degradedDecision(content)
	}

	var wire struct {
		Status                any    `json:"status"`
		Reason                string `json:"reason"`
		Summary               string `json:"summary"`
		EvidenceQuote         string `json:"evidence_quote"`
		RFIDraft              string `json:"rfi_draft"`
		CriteriaMet           bool   `json:"criteria_met"`
		DocumentationComplete *bool  `json:"documentation_complete"`
		PolicyMatch           bool   `json:"policy_match"`
		MissingCriteria       string `json:"missing_criteria"`
		MissingDocumentation  string `json:"missing_documentation"`
	}
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return degradedDecision(content)
	}

	// A non-string status coerces to UNKNOWN rather than discarding the
	// rest of the payload.
	statusStr, _ := wire.Status.(string)

	documentationComplete := true
	if wire.DocumentationComplete != nil {
		documentationComplete = *wire.DocumentationComplete
	}

	return &models.PolicyDecision{
		Status:                models.NormalizeStatus(statusStr),
		Reason:                wire.Reason,
		Summary:               wire.Summary,
		EvidenceQuote:         wire.EvidenceQuote,
		RFIDraft:              wire.RFIDraft,
		CriteriaMet:           wire.CriteriaMet,
		DocumentationComplete: documentationComplete,
		PolicyMatch:           wire.PolicyMatch,
		MissingCriteria:       wire.MissingCriteria,
		MissingDocumentation:  wire.MissingDocumentation,
	}
}

// degradedDecision is the fallback for malformed model output: status UNKNOWN
// with the raw content preserved as the reason. documentation_complete stays
// true so a garbled response does not raise a false missing-documentation
// alarm.
func degradedDecision(content string) *models.PolicyDecision {
	reason := strings.TrimSpace(content)
	if reason == "" {
		reason = degradedReasonPlaceholder
	}
	return &models.PolicyDecision{
		Status:                models.StatusUnknown,
		Reason:                reason,
		DocumentationComplete: true,
	}
}

// geminiGenerator implements contentGenerator over the Gemini client.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(decisionTemperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("completion returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
