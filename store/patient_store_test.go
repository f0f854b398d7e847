package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Vishwas721/Prism/models"
)

func newPatientStore(t *testing.T) *PatientStore {
	t.Helper()
	return NewPatientStore(filepath.Join(t.TempDir(), "patients.json"))
}

func TestPatientStoreEmptyFile(t *testing.T) {
	s := newPatientStore(t)

	cases, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("expected empty list, got %d cases", len(cases))
	}
}

func TestPatientStoreCreateAssignsSequentialIDs(t *testing.T) {
	s := newPatientStore(t)

	for i, want := range []string{"case-001", "case-002", "case-003"} {
		c := &models.PatientCase{PatientName: "Patient", PolicyID: "mri-lumbar"}
		if err := s.Create(c); err != nil {
			t.Fatalf("Create #%d: %v", i+1, err)
		}
		if c.ID != want {
			t.Errorf("id = %q, want %q", c.ID, want)
		}
	}
}

func TestPatientStoreCreateDefaults(t *testing.T) {
	s := newPatientStore(t)

	c := &models.PatientCase{PatientName: "Patient", PolicyID: "mri-lumbar"}
	if err := s.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != models.StatusPending {
		t.Errorf("status = %q, want PENDING", c.Status)
	}
	if c.SLAHours != 72 || c.SLARemainingHours != 72 {
		t.Errorf("sla = %d/%d, want 72/72", c.SLAHours, c.SLARemainingHours)
	}
	if c.ReceivedDate.IsZero() {
		t.Error("received date not stamped")
	}
}

func TestPatientStoreCreatePreservesPresetStatus(t *testing.T) {
	s := newPatientStore(t)

	c := &models.PatientCase{PatientName: "Patient", Status: models.StatusAutoApproved, SLAHours: 24}
	if err := s.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != models.StatusAutoApproved {
		t.Errorf("status = %q, preset status must survive", c.Status)
	}
	if c.SLARemainingHours != 24 {
		t.Errorf("sla remaining = %d, want 24", c.SLARemainingHours)
	}
}

func TestNextCaseID(t *testing.T) {
	mk := func(ids ...string) []models.PatientCase {
		cases := make([]models.PatientCase, len(ids))
		for i, id := range ids {
			cases[i].ID = id
		}
		return cases
	}

	tests := []struct {
		name  string
		cases []models.PatientCase
		want  string
	}{
		{"empty", nil, "case-001"},
		{"sequential", mk("case-001", "case-002"), "case-003"},
		{"gap keeps max", mk("case-001", "case-003"), "case-004"},
		{"foreign ids ignored", mk("legacy-7", "case-002"), "case-003"},
		{"collision skipped", mk("case-001", "case-002", "case-003"), "case-004"},
		{"unpadded numeric", mk("case-12"), "case-013"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextCaseID(tt.cases); got != tt.want {
				t.Errorf("nextCaseID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatientStoreUpdateAnalysis(t *testing.T) {
	s := newPatientStore(t)

	c := &models.PatientCase{PatientName: "Patient", PolicyID: "mri-lumbar"}
	if err := s.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	result := &models.AnalysisResult{
		PolicyDecision: models.PolicyDecision{
			Status: models.StatusDenied,
			Reason: "Does not meet policy criteria.",
		},
		EntitiesDetected: []string{"headache"},
	}
	updated, err := s.UpdateAnalysis(c.ID, result)
	if err != nil {
		t.Fatalf("UpdateAnalysis: %v", err)
	}
	if updated.Status != models.StatusDenied {
		t.Errorf("case status = %q, want mirror of decision status", updated.Status)
	}

	reloaded, err := s.GetByID(c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.AnalysisResult == nil || reloaded.AnalysisResult.Reason != "Does not meet policy criteria." {
		t.Errorf("analysis result not persisted: %+v", reloaded.AnalysisResult)
	}

	if _, err := s.UpdateAnalysis("case-999", result); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestPatientStoreMarkRFISent(t *testing.T) {
	s := newPatientStore(t)

	c := &models.PatientCase{PatientName: "Patient"}
	if err := s.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.MarkRFISent(c.ID, "Please send the missing X-ray.")
	if err != nil {
		t.Fatalf("MarkRFISent: %v", err)
	}
	if !updated.RFISent || updated.RFISentAt == nil || updated.RFISentAt.IsZero() {
		t.Error("RFI state not recorded")
	}
	if updated.RFIMessage != "Please send the missing X-ray." {
		t.Errorf("message = %q", updated.RFIMessage)
	}

	if _, err := s.MarkRFISent("case-999", "msg"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestPatientStoreGetByIDNotFound(t *testing.T) {
	s := newPatientStore(t)
	if _, err := s.GetByID("case-001"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}
