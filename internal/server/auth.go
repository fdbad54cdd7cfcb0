package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthRequired enforces spec §6's "all endpoints require Authorization:
// Bearer <token>", adapted from api_key_auth.go's Bearer-header parsing
// but compared against the single static API_TOKEN configured for this
// deployment instead of a per-row DB-backed API key.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := parts[1]
		if s.cfg.APIToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}
