package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Vishwas721/Prism/models"
)

var ErrCaseNotFound = errors.New("patient case not found")

// PatientStore is the flat-file store for patient cases. It exclusively owns
// the persisted list; every mutation is a locked read-modify-write of the
// whole file.
type PatientStore struct {
	path string
	mu   sync.Mutex
}

// NewPatientStore uses path as the backing JSON file.
func NewPatientStore(path string) *PatientStore {
	return &PatientStore{path: path}
}

// List returns all patient cases. A missing file yields an empty list.
func (s *PatientStore) List() ([]models.PatientCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.PatientCase](s.path)
}

// GetByID returns the case with the given id, or ErrCaseNotFound.
func (s *PatientStore) GetByID(id string) (*models.PatientCase, error) {
	cases, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].ID == id {
			return &cases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCaseNotFound, id)
}

// Create assigns a fresh case id and received timestamp, appends the record
// and persists the list. SLA remaining starts at the full SLA window.
func (s *PatientStore) Create(c *models.PatientCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := readList[models.PatientCase](s.path)
	if err != nil {
		return err
	}

	c.ID = nextCaseID(cases)
	c.ReceivedDate = time.Now().UTC()
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.SLAHours == 0 {
		c.SLAHours = 72
	}
	c.SLARemainingHours = c.SLAHours

	cases = append(cases, *c)
	return writeList(s.path, cases)
}

// UpdateAnalysis replaces a case's analysis result wholesale and mirrors the
// decision status onto the case.
func (s *PatientStore) UpdateAnalysis(id string, result *models.AnalysisResult) (*models.PatientCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := readList[models.PatientCase](s.path)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].ID == id {
			cases[i].AnalysisResult = result
			cases[i].Status = result.Status
			if err := writeList(s.path, cases); err != nil {
				return nil, err
			}
			return &cases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCaseNotFound, id)
}

// MarkRFISent records that a follow-up request went out for the case.
func (s *PatientStore) MarkRFISent(id, message string) (*models.PatientCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := readList[models.PatientCase](s.path)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].ID == id {
			now := time.Now().UTC()
			cases[i].RFISent = true
			cases[i].RFISentAt = &now
			cases[i].RFIMessage = message
			if err := writeList(s.path, cases); err != nil {
				return nil, err
			}
			return &cases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCaseNotFound, id)
}

// nextCaseID scans existing ids for numeric suffixes and returns
// case-<max+1>, zero-padded to three digits. If the candidate somehow already
// exists it increments until free.
func nextCaseID(cases []models.PatientCase) string {
	taken := make(map[string]bool, len(cases))
	max := 0
	for _, c := range cases {
		taken[c.ID] = true
		suffix, ok := strings.CutPrefix(c.ID, "case-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > max {
			max = n
		}
	}
	for n := max + 1; ; n++ {
		id := fmt.Sprintf("case-%03d", n)
		if !taken[id] {
			return id
		}
	}
}
