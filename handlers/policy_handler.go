package handlers

import (
	"errors"
	"net/http"

	"github.com/Vishwas721/Prism/models"
	"github.com/Vishwas721/Prism/store"

	"github.com/gin-gonic/gin"
)

// PolicyHandler handles HTTP requests for adjudication policies.
type PolicyHandler struct {
	policies *store.PolicyStore
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(policies *store.PolicyStore) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// ListPolicies handles GET /api/policies. Returns a lightweight projection
// suitable for dropdowns; the policy body stays behind the detail endpoint.
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	policies, err := h.policies.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": "Failed to retrieve policies",
			},
		})
		return
	}

	summaries := make([]gin.H, 0, len(policies))
	for _, p := range policies {
		summaries = append(summaries, gin.H{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// GetPolicy handles GET /api/policies/:id.
func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	policy, err := h.policies.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrPolicyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "POLICY_NOT_FOUND",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GET_FAILED",
				"message": "Failed to retrieve policy",
			},
		})
		return
	}
	c.JSON(http.StatusOK, policy)
}

// AddPolicyRequest represents the request body for adding a policy.
type AddPolicyRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Text        string `json:"text" binding:"required"`
}

// AddPolicy handles POST /api/policies.
func (h *PolicyHandler) AddPolicy(c *gin.Context) {
	var req AddPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	policy, err := h.policies.Add(models.Policy{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Text:        req.Text,
	})
	if err != nil {
		if errors.Is(err, store.ErrPolicyExists) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "POLICY_EXISTS",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ADD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    policy,
	})
}
