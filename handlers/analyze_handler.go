package handlers

import (
	"errors"
	"net/http"

	"github.com/Vishwas721/Prism/service"
	"github.com/Vishwas721/Prism/store"

	"github.com/gin-gonic/gin"
)

// AnalyzeHandler handles HTTP requests that trigger the analysis pipeline.
type AnalyzeHandler struct {
	caseService *service.CaseService
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(caseService *service.CaseService) *AnalyzeHandler {
	return &AnalyzeHandler{caseService: caseService}
}

// Analyze handles POST /api/analyze. The document comes either from a direct
// file upload or from a previously uploaded case referenced by case_id;
// policy_id is always required.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	policyID := c.PostForm("policy_id")
	if policyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_POLICY_ID",
				"message": "policy_id is required",
			},
		})
		return
	}

	caseID := c.PostForm("case_id")

	var document []byte
	if fileHeader, err := c.FormFile("file"); err == nil {
		document, err = readFormFile(fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_OPEN_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
	} else if caseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_DOCUMENT",
				"message": "Either a file upload or a case_id is required",
			},
		})
		return
	}

	result, err := h.caseService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		Document: document,
		PolicyID: policyID,
		CaseID:   caseID,
	})
	if err != nil {
		status, code := analyzeErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// analyzeErrorStatus maps pipeline errors onto the taxonomy: validation
// errors are 400, missing records 404, provider transport failures 502.
// Decision-content problems never reach here; they surface as a successful
// UNKNOWN result.
func analyzeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrPolicyNotFound):
		return http.StatusBadRequest, "POLICY_NOT_FOUND"
	case errors.Is(err, service.ErrEmptyPolicyText):
		return http.StatusBadRequest, "EMPTY_POLICY"
	case errors.Is(err, service.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT"
	case errors.Is(err, service.ErrMissingEvaluationInput):
		return http.StatusBadRequest, "MISSING_EVALUATION_INPUT"
	case errors.Is(err, store.ErrCaseNotFound):
		return http.StatusNotFound, "CASE_NOT_FOUND"
	case errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND"
	case errors.Is(err, service.ErrProviderFailure):
		return http.StatusBadGateway, "PROVIDER_ERROR"
	default:
		return http.StatusInternalServerError, "ANALYZE_FAILED"
	}
}
