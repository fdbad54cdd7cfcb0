package server

import (
	"github.com/gin-gonic/gin"

	referraldomain "github.com/railzway/billing/internal/referral/domain"
)

func (s *Server) registerReferralRoutes(r gin.IRouter) {
	r.POST("/referrals", s.handleCreateReferral)
	r.GET("/referrals/stats", s.handleReferralStats)
	r.POST("/demo/trial-grant", s.handleTrialGrant)
}

// createReferralRequest supports both assignment modes of spec §4.5: local
// ids (referrer_id/referee_id) or a shared provider with each side's own
// external id.
type createReferralRequest struct {
	ReferrerID         string         `json:"referrer_id,omitempty"`
	RefereeID          string         `json:"referee_id,omitempty"`
	Provider           string         `json:"provider"`
	ReferrerExternalID string         `json:"referrer_external_id"`
	RefereeExternalID  string         `json:"referee_external_id"`
	Metadata           map[string]any `json:"metadata"`
}

func (s *Server) handleCreateReferral(c *gin.Context) {
	var req createReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	referrerID, err := parseOptionalSnowflakeID(req.ReferrerID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	refereeID, err := parseOptionalSnowflakeID(req.RefereeID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.referral.CreateReferral(c.Request.Context(), referraldomain.CreateReferralParams{
		ReferrerID:         referrerID,
		RefereeID:          refereeID,
		Provider:           req.Provider,
		ReferrerExternalID: req.ReferrerExternalID,
		RefereeExternalID:  req.RefereeExternalID,
		Metadata:           req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, gin.H{
		"referral": result.Referral,
		"created":  result.Created,
	})
}

func (s *Server) handleReferralStats(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	referrerID, err := s.resolveRead(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.referral.GetStats(c.Request.Context(), referrerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, stats)
}

type trialGrantRequest struct {
	identityRef
	SKU string `json:"sku" binding:"required"`
}

// handleTrialGrant implements POST /demo/trial-grant, the reference trial
// flow used by the literal end-to-end scenario in spec §8 ("Trial reuse
// prevention").
func (s *Server) handleTrialGrant(c *gin.Context) {
	var req trialGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := s.resolveWrite(c.Request.Context(), req.identityRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	identities := linkedIdentities(userID, req.identityRef)
	if err := s.referral.GrantTrial(c.Request.Context(), userID, req.SKU, identities); err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, gin.H{"user_id": userID.String(), "sku": req.SKU})
}
