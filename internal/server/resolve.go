package server

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	identitydomain "github.com/railzway/billing/internal/identity/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
)

// identityRef is the two-mode {user_id} / {external_id, provider} selector
// every resolve-taking endpoint of spec §6 accepts ("user_id? or
// external_id?+provider?"). UserID travels as a string (snowflake ids are
// 64-bit and not safe to round-trip through a JS float) and is parsed on
// use, matching the teacher's own snowflake.ParseString convention at the
// HTTP boundary.
type identityRef struct {
	UserID     string `json:"user_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

func (r identityRef) params() (identitydomain.ResolveParams, error) {
	userID, err := parseOptionalSnowflakeID(r.UserID)
	if err != nil {
		return identitydomain.ResolveParams{}, err
	}
	return identitydomain.ResolveParams{
		UserID:     userID,
		Provider:   r.Provider,
		ExternalID: r.ExternalID,
	}, nil
}

// refFromQuery builds an identityRef from a GET request's query string.
func refFromQuery(c *gin.Context) (identityRef, error) {
	return identityRef{
		UserID:     c.Query("user_id"),
		ExternalID: c.Query("external_id"),
		Provider:   c.Query("provider"),
	}, nil
}

// resolveRead resolves a read-only endpoint's caller: never creates,
// 404s via ErrIdentityNotFound when nothing is linked.
func (s *Server) resolveRead(ctx context.Context, ref identityRef) (snowflake.ID, error) {
	params, err := ref.params()
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return s.identity.ResolveForRead(ctx, params)
}

// resolveWrite resolves a mutating endpoint's caller: creates the user
// (and identity, if needed) on first contact.
func (s *Server) resolveWrite(ctx context.Context, ref identityRef) (snowflake.ID, error) {
	params, err := ref.params()
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return s.identity.ResolveForWrite(ctx, params)
}

// linkedIdentities assembles the identity set used by the trial-reuse
// guard: the user's own id plus, when the request named one, the external
// identity it was resolved from. Other identities linked to the same user
// are not included.
func linkedIdentities(userID snowflake.ID, ref identityRef) []referraldomain.Identity {
	out := []referraldomain.Identity{
		{Type: "user_id", Value: userID.String()},
	}
	if ref.ExternalID != "" {
		provider := ref.Provider
		if provider == "" {
			provider = identitydomain.DefaultProvider
		}
		out = append(out, referraldomain.Identity{Type: provider, Value: ref.ExternalID})
	}
	return out
}
