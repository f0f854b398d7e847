package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Vishwas721/Prism/service"
	"github.com/Vishwas721/Prism/store"

	"github.com/gin-gonic/gin"
)

// CaseHandler handles HTTP requests for patient cases.
type CaseHandler struct {
	cases       *store.PatientStore
	caseService *service.CaseService
	maxFileSize int64
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(cases *store.PatientStore, caseService *service.CaseService) *CaseHandler {
	return &CaseHandler{
		cases:       cases,
		caseService: caseService,
		maxFileSize: 20 * 1024 * 1024, // 20MB
	}
}

// ListCases handles GET /api/patients.
func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.cases.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": "Failed to retrieve patient cases",
			},
		})
		return
	}
	c.JSON(http.StatusOK, cases)
}

// GetCase handles GET /api/patients/:id.
func (h *CaseHandler) GetCase(c *gin.Context) {
	patientCase, err := h.cases.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CASE_NOT_FOUND",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GET_FAILED",
				"message": "Failed to retrieve patient case",
			},
		})
		return
	}
	c.JSON(http.StatusOK, patientCase)
}

// UploadCase handles POST /api/upload.
func (h *CaseHandler) UploadCase(c *gin.Context) {
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

	slaHours := 72
	if raw := c.PostForm("sla_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SLA_HOURS",
					"message": "sla_hours must be a positive integer",
				},
			})
			return
		}
		slaHours = parsed
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}
	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": "File size exceeds maximum of " + strconv.FormatInt(h.maxFileSize, 10) + " bytes",
			},
		})
		return
	}

	content, err := readFormFile(fileHeader)
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

	patientCase, err := h.caseService.UploadCase(c.Request.Context(), service.UploadCaseRequest{
		Filename:    fileHeader.Filename,
		Content:     content,
		PatientName: c.PostForm("patient_name"),
		PolicyID:    policyID,
		ProviderID:  c.PostForm("provider_id"),
		SLAHours:    slaHours,
	})
	if err != nil {
		status, code := uploadErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusCreated, patientCase)
}

// SendRFI handles POST /api/patients/:id/send-rfi.
func (h *CaseHandler) SendRFI(c *gin.Context) {
	patientCase, err := h.caseService.MarkRFISent(c.Request.Context(), c.Param("id"), c.PostForm("message"))
	if err != nil {
		if errors.Is(err, store.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CASE_NOT_FOUND",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RFI_FAILED",
				"message": "Failed to send RFI",
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patient": patientCase,
	})
}

func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrPolicyNotFound):
		return http.StatusBadRequest, "POLICY_NOT_FOUND"
	case errors.Is(err, store.ErrProviderNotFound):
		return http.StatusBadRequest, "PROVIDER_NOT_FOUND"
	case errors.Is(err, service.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_FILE"
	default:
		return http.StatusInternalServerError, "UPLOAD_FAILED"
	}
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
