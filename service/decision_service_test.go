package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Vishwas721/Prism/models"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.lastUser = user
	return f.response, f.err
}

const wellFormedResponse = `{
	"status": "action_required",
	"reason": "X-ray is older than 30 days.",
	"summary": "Partially meets criteria.",
	"evidence_quote": "X-ray performed 45 days ago",
	"rfi_draft": "Dear Dr. Chen, please send a recent lumbar X-ray.",
	"criteria_met": true,
	"documentation_complete": false,
	"policy_match": true,
	"missing_criteria": "",
	"missing_documentation": "X-ray within 30 days"
}`

func TestEvaluateWellFormedResponse(t *testing.T) {
	gen := &fakeGenerator{response: wellFormedResponse}
	svc := NewDecisionService()
	svc.generator = gen

	decision, err := svc.Evaluate(context.Background(), "policy text", "note text", []string{"X-ray", "low back pain"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if decision.Status != models.StatusActionRequired {
		t.Errorf("status = %q, want %q", decision.Status, models.StatusActionRequired)
	}
	if decision.Reason != "X-ray is older than 30 days." {
		t.Errorf("reason = %q", decision.Reason)
	}
	if decision.DocumentationComplete {
		t.Error("documentation_complete should be false")
	}
	if !decision.CriteriaMet || !decision.PolicyMatch {
		t.Error("criteria_met and policy_match should be true")
	}
	if decision.MissingDocumentation != "X-ray within 30 days" {
		t.Errorf("missing_documentation = %q", decision.MissingDocumentation)
	}
	if !strings.Contains(gen.lastUser, "policy text") || !strings.Contains(gen.lastUser, "note text") {
		t.Error("prompt should carry the policy and document text")
	}
	if !strings.Contains(gen.lastUser, "X-ray, low back pain") {
		t.Error("prompt should list detected entities")
	}
}

func TestEvaluateFencedResponseMatchesUnfenced(t *testing.T) {
	fenced := "```json\n" + wellFormedResponse + "\n```"

	plain, err := NewDecisionService().evaluateWith(t, wellFormedResponse)
	if err != nil {
		t.Fatalf("unfenced: %v", err)
	}
	wrapped, err := NewDecisionService().evaluateWith(t, fenced)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if *plain != *wrapped {
		t.Errorf("fenced decision differs from unfenced:\n%+v\n%+v", wrapped, plain)
	}
}

// evaluateWith runs Evaluate against a canned model response.
func (s *DecisionService) evaluateWith(t *testing.T, response string) (*models.PolicyDecision, error) {
	t.Helper()
	s.generator = &fakeGenerator{response: response}
	return s.Evaluate(context.Background(), "policy", "document", nil)
}

func TestNormalizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeModelJSON(tt.raw); got != tt.want {
				t.Errorf("normalizeModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDecisionStatusNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   models.Status
	}{
		{"lowercase", "approved", models.StatusApproved},
		{"mixed case", "Denied", models.StatusDenied},
		{"padded", "  ACTION_REQUIRED  ", models.StatusActionRequired},
		{"garbled", "MAYBE", models.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"status": "` + tt.status + `", "reason": "r"}`
			decision := parseDecision(raw)
			if decision.Status != tt.want {
				t.Errorf("status %q normalized to %q, want %q", tt.status, decision.Status, tt.want)
			}
			if tt.want != models.StatusUnknown && decision.Reason != "r" {
				t.Errorf("reason = %q, want %q", decision.Reason, "r")
			}
		})
	}
}

func TestParseDecisionDegraded(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReason string
	}{
		{"prose", "I cannot evaluate this document.", "I cannot evaluate this document."},
		{"empty", "", degradedReasonPlaceholder},
		{"whitespace only", "   \n  ", degradedReasonPlaceholder},
		{"missing reason", `{"status": "APPROVED"}`, `{"status": "APPROVED"}`},
		{"empty reason", `{"status": "APPROVED", "reason": ""}`, `{"status": "APPROVED", "reason": ""}`},
		{"wrong field type", `{"status": "APPROVED", "reason": "ok", "criteria_met": "yes"}`, `{"status": "APPROVED", "reason": "ok", "criteria_met": "yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := parseDecision(tt.raw)
			if decision.Status != models.StatusUnknown {
				t.Errorf("status = %q, want UNKNOWN", decision.Status)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", decision.Reason, tt.wantReason)
			}
			if !decision.DocumentationComplete {
				t.Error("degraded decision should keep documentation_complete true")
			}
		})
	}
}

func TestParseDecisionNonStringStatus(t *testing.T) {
	decision := parseDecision(`{"status": 42, "reason": "numeric status"}`)
	if decision.Status != models.StatusUnknown {
		t.Errorf("status = %q, want UNKNOWN", decision.Status)
	}
	if decision.Reason != "numeric status" {
		t.Errorf("reason = %q, payload fields should survive a bad status", decision.Reason)
	}
}

func TestParseDecisionDocumentationCompleteDefault(t *testing.T) {
	decision := parseDecision(`{"status": "APPROVED", "reason": "meets all criteria"}`)
	if !decision.DocumentationComplete {
		t.Error("documentation_complete should default to true when omitted")
	}

	decision = parseDecision(`{"status": "APPROVED", "reason": "r", "documentation_complete": false}`)
	if decision.DocumentationComplete {
		t.Error("explicit false must be preserved")
	}
}

func TestEvaluateMissingInput(t *testing.T) {
	gen := &fakeGenerator{response: wellFormedResponse}
	svc := NewDecisionService()
	svc.generator = gen

	tests := []struct {
		name     string
		policy   string
		document string
	}{
		{"empty policy", "", "document"},
		{"blank policy", "   ", "document"},
		{"empty document", "policy", ""},
		{"blank document", "policy", "\n\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Evaluate(context.Background(), tt.policy, tt.document, nil)
			if !errors.Is(err, ErrMissingEvaluationInput) {
				t.Errorf("err = %v, want ErrMissingEvaluationInput", err)
			}
		})
	}
	if gen.calls != 0 {
		t.Errorf("provider called %d times for invalid input", gen.calls)
	}
}

func TestEvaluateTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection reset")
	svc := NewDecisionService()
	svc.generator = &fakeGenerator{err: transportErr}

	_, err := svc.Evaluate(context.Background(), "policy", "document", nil)
	if !errors.Is(err, transportErr) {
		t.Errorf("err = %v, want wrapped transport error", err)
	}
}
