package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) registerCustomerRoutes(r gin.IRouter) {
	r.POST("/customers/merge", s.handleMergeCustomers)
}

type mergeCustomersRequest struct {
	TargetUserID string `json:"target_user_id" binding:"required"`
	SourceUserID string `json:"source_user_id" binding:"required"`
}

// handleMergeCustomers implements POST /customers/merge, the supplemented
// feature described in SPEC_FULL's "Customer merge" section.
func (s *Server) handleMergeCustomers(c *gin.Context) {
	var req mergeCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	targetID, err := parseOptionalSnowflakeID(req.TargetUserID)
	if err != nil || targetID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	sourceID, err := parseOptionalSnowflakeID(req.SourceUserID)
	if err != nil || sourceID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	stats, err := s.customer.Merge(c.Request.Context(), *targetID, *sourceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, stats)
}
