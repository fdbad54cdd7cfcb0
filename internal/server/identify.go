package server

import (
	"github.com/gin-gonic/gin"
)

type identifyRequest struct {
	Provider   string         `json:"provider"`
	ExternalID string         `json:"external_id" binding:"required"`
	Profile    map[string]any `json:"profile"`
}

func (s *Server) registerIdentityRoutes(r gin.IRouter) {
	r.POST("/identify", s.handleIdentify)
}

// handleIdentify implements POST /identify (spec §6): write-path identity
// resolve, echoing trial_eligible per the trial-eligibility-echo entry of
// SPEC_FULL.md's SUPPLEMENTED FEATURES section.
func (s *Server) handleIdentify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.identity.Identify(c.Request.Context(), req.Provider, req.ExternalID, req.Profile)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	Success(c, gin.H{
		"user_id":          result.UserID.String(),
		"identity_id":      result.IdentityID.String(),
		"created_user":     result.CreatedUser,
		"created_identity": result.CreatedIdentity,
		"trial_eligible":   result.TrialEligible,
		"metadata":         result.Metadata,
	})
}
