package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Vishwas721/Prism/models"
	"github.com/Vishwas721/Prism/storage"
	"github.com/Vishwas721/Prism/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyDocument reports zero-length document bytes; distinct from a
	// missing case or file.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrEmptyPolicyText reports a resolved policy with no adjudication body.
	ErrEmptyPolicyText = errors.New("policy has no text")

	// ErrDocumentNotFound reports a case whose stored document could not be
	// retrieved.
	ErrDocumentNotFound = errors.New("case document not found")

	// ErrProviderFailure marks OCR/entity/completion transport failures so
	// the HTTP layer can map them; the upstream message is preserved inside.
	ErrProviderFailure = errors.New("upstream provider failure")
)

// CaseService sequences the document-to-decision pipeline and owns the
// lifecycle of patient cases: intake, analysis, RFI marking.
type CaseService struct {
	patients  *store.PatientStore
	policies  *store.PolicyStore
	providers *store.ProviderStore
	documents storage.Storage
	ocr       TextExtractor
	entities  EntityExtractor
	decisions DecisionEvaluator
}

// CaseServiceOption is a functional option for CaseService.
type CaseServiceOption func(*CaseService)

// CaseWithPatientStore sets the patient case store.
func CaseWithPatientStore(s *store.PatientStore) CaseServiceOption {
	return func(c *CaseService) {
		c.patients = s
	}
}

// CaseWithPolicyStore sets the policy store.
func CaseWithPolicyStore(s *store.PolicyStore) CaseServiceOption {
	return func(c *CaseService) {
		c.policies = s
	}
}

// CaseWithProviderStore sets the provider store.
func CaseWithProviderStore(s *store.ProviderStore) CaseServiceOption {
	return func(c *CaseService) {
		c.providers = s
	}
}

// CaseWithDocumentStorage sets the uploaded-document storage backend.
func CaseWithDocumentStorage(s storage.Storage) CaseServiceOption {
	return func(c *CaseService) {
		c.documents = s
	}
}

// CaseWithTextExtractor sets the OCR stage.
func CaseWithTextExtractor(e TextExtractor) CaseServiceOption {
	return func(c *CaseService) {
		c.ocr = e
	}
}

// CaseWithEntityExtractor sets the entity-recognition stage.
func CaseWithEntityExtractor(e EntityExtractor) CaseServiceOption {
	return func(c *CaseService) {
		c.entities = e
	}
}

// CaseWithDecisionEvaluator sets the policy-evaluation stage.
func CaseWithDecisionEvaluator(e DecisionEvaluator) CaseServiceOption {
	return func(c *CaseService) {
		c.decisions = e
	}
}

// NewCaseService creates a new case service.
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	c := &CaseService{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeRequest carries one analysis invocation: a direct document, a case
// reference, or both (the direct document wins when both are set).
type AnalyzeRequest struct {
	Document []byte
	PolicyID string
	CaseID   string
}

// Analyze resolves the policy and document, runs OCR, entity extraction and
// policy evaluation in strict sequence, and merges the result into the
// referenced case. A case-update failure after a successful analysis is
// logged but does not invalidate the returned result.
func (s *CaseService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error) {
	if s.policies == nil {
		return nil, errors.New("policy store not set")
	}

	policyText, err := s.policies.GetText(req.PolicyID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(policyText) == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyPolicyText, req.PolicyID)
	}

	document := req.Document
	if req.CaseID != "" {
		patientCase, err := s.patients.GetByID(req.CaseID)
		if err != nil {
			return nil, err
		}
		if len(document) == 0 {
			document, err = s.readStoredDocument(ctx, patientCase.FilePath)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(document) == 0 {
		return nil, ErrEmptyDocument
	}

	log.Info().Str("policy_id", req.PolicyID).Str("case_id", req.CaseID).Msg("extracting document text")
	text, err := s.ocr.ExtractText(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("%w: text extraction failed: %w", ErrProviderFailure, err)
	}

	log.Info().Int("text_len", len(text)).Msg("recognizing clinical entities")
	entities, err := s.entities.ExtractEntities(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: entity extraction failed: %w", ErrProviderFailure, err)
	}

	log.Info().Int("entities", len(entities)).Msg("evaluating policy decision")
	decision, err := s.decisions.Evaluate(ctx, policyText, text, entities)
	if err != nil {
		if errors.Is(err, ErrMissingEvaluationInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: policy evaluation failed: %w", ErrProviderFailure, err)
	}

	result := &models.AnalysisResult{
		PolicyDecision:   *decision,
		EntitiesDetected: entities,
		FHIRJSON:         map[string]any{"entities": entities},
	}

	if req.CaseID != "" {
		if _, err := s.patients.UpdateAnalysis(req.CaseID, result); err != nil {
			log.Warn().Err(err).Str("case_id", req.CaseID).Msg("analysis completed but case update failed")
		}
	}
	return result, nil
}

// readStoredDocument loads a case's document from storage. Any retrieval
// failure is reported as not-found since the record referenced a file that
// cannot be produced.
func (s *CaseService) readStoredDocument(ctx context.Context, path string) ([]byte, error) {
	reader, err := s.documents.Download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	defer reader.Close()

	document, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored document %s: %w", path, err)
	}
	return document, nil
}

// UploadCaseRequest carries one case intake.
type UploadCaseRequest struct {
	Filename    string
	Content     []byte
	PatientName string
	PolicyID    string
	ProviderID  string
	SLAHours    int
}

// UploadCase validates the policy, stores the document and creates the case
// record. When no patient name is supplied it is guessed from the document
// text, then from the filename. A gold-card provider bypasses analysis
// entirely: the case starts AUTO_APPROVED with a fabricated decision naming
// the exemption.
func (s *CaseService) UploadCase(ctx context.Context, req UploadCaseRequest) (*models.PatientCase, error) {
	policy, err := s.policies.GetByID(req.PolicyID)
	if err != nil {
		return nil, err
	}
	if len(req.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	var provider *models.Provider
	if req.ProviderID != "" {
		provider, err = s.providers.GetByID(req.ProviderID)
		if err != nil {
			return nil, err
		}
	}

	name := strings.TrimSpace(req.PatientName)
	if name == "" && !provider.IsGoldCard() {
		if text, ocrErr := s.ocr.ExtractText(ctx, req.Content); ocrErr != nil {
			log.Warn().Err(ocrErr).Msg("failed to auto-extract patient name")
		} else {
			name = guessPatientName(text)
		}
	}
	if name == "" {
		name = nameFromFilename(req.Filename)
	}
	if name == "" {
		name = "Unknown Patient"
	}

	storedName := slugifyName(name) + "_" + filepath.Base(req.Filename)
	path, err := s.documents.Upload(ctx, uuid.New(), storedName, bytes.NewReader(req.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	patientCase := &models.PatientCase{
		PatientName: name,
		PolicyID:    policy.ID,
		PolicyName:  policy.Name,
		SLAHours:    req.SLAHours,
		FilePath:    path,
	}
	if provider != nil {
		patientCase.ProviderID = provider.ID
		patientCase.ProviderName = provider.Name
		if provider.IsGoldCard() {
			patientCase.Status = models.StatusAutoApproved
			patientCase.AnalysisResult = goldCardResult(provider)
		}
	}

	if err := s.patients.Create(patientCase); err != nil {
		return nil, err
	}
	log.Info().Str("case_id", patientCase.ID).Str("patient", name).Msg("created patient case")
	return patientCase, nil
}

// MarkRFISent records that a follow-up request went out for the case.
func (s *CaseService) MarkRFISent(ctx context.Context, caseID, message string) (*models.PatientCase, error) {
	patientCase, err := s.patients.MarkRFISent(caseID, message)
	if err != nil {
		return nil, err
	}
	log.Info().Str("case_id", caseID).Msg("RFI marked sent")
	return patientCase, nil
}

// goldCardResult fabricates the decision payload for a gold-card bypass. The
// provider's exemption text is carried verbatim as the reason.
func goldCardResult(provider *models.Provider) *models.AnalysisResult {
	reason := provider.Exemption
	if reason == "" {
		reason = "Gold-card provider exemption"
	}
	return &models.AnalysisResult{
		PolicyDecision: models.PolicyDecision{
			Status:                models.StatusAutoApproved,
			Reason:                reason,
			Summary:               fmt.Sprintf("Automatically approved: %s holds gold-card status.", provider.Name),
			CriteriaMet:           true,
			DocumentationComplete: true,
			PolicyMatch:           true,
		},
		EntitiesDetected: []string{},
		FHIRJSON:         map[string]any{"entities": []string{}},
	}
}
