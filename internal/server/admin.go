package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) registerAdminRoutes(r gin.IRouter) {
	r.POST("/admin/identities/backfill", s.handleIdentitiesBackfill)
}

type backfillRequest struct {
	Limit int `json:"limit"`
}

// handleIdentitiesBackfill implements the supplemented
// migrate_identities-equivalent admin operation (SPEC_FULL "Supplemented
// features" §2): re-resolves every unlinked ExternalIdentity row.
func (s *Server) handleIdentitiesBackfill(c *gin.Context) {
	var req backfillRequest
	_ = c.ShouldBindJSON(&req)
	if req.Limit <= 0 {
		req.Limit = 100
	}

	linked, err := s.identity.BackfillIdentities(c.Request.Context(), req.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, gin.H{"linked": linked})
}
