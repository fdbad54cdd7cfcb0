// Package service implements the identity resolver: mapping
// (provider, external_id) to a local user id under the write-path
// (create-on-write) and read-path (lookup-only) rules of spec §4.1.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"github.com/railzway/billing/internal/identityhash"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  identitydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  identitydomain.Repository
}

// New constructs the identity Service for fx wiring.
func New(p Params) identitydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func normalizeProvider(provider string) string {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return identitydomain.DefaultProvider
	}
	return provider
}

func (s *Service) Identify(ctx context.Context, provider, externalID string, profile map[string]any) (*identitydomain.IdentifyResult, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, identitydomain.ErrEmptyExternalID
	}
	provider = normalizeProvider(provider)

	result := &identitydomain.IdentifyResult{Metadata: profile}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindIdentity(ctx, tx, provider, externalID, true)
		if err != nil {
			return err
		}

		if identity == nil {
			identity = &identitydomain.ExternalIdentity{
				ID:         s.genID.Generate(),
				Provider:   provider,
				ExternalID: externalID,
			}
			if len(profile) > 0 {
				identity.Metadata = profile
			}
			if err := s.repo.InsertIdentity(ctx, tx, identity); err != nil {
				return err
			}
			result.CreatedIdentity = true
		}

		if identity.UserID == nil {
			user := &identitydomain.User{
				ID:        s.genID.Generate(),
				Username:  fmt.Sprintf("billable_%s_%s", provider, externalID),
				CreatedAt: time.Now().UTC(),
			}
			if err := s.repo.InsertUser(ctx, tx, user); err != nil {
				return err
			}
			if err := s.repo.LinkIdentityUser(ctx, tx, identity.ID, user.ID); err != nil {
				return err
			}
			identity.UserID = &user.ID
			result.CreatedUser = true
		}

		result.UserID = *identity.UserID
		result.IdentityID = identity.ID

		eligible, err := s.isTrialEligible(ctx, tx, provider, externalID)
		if err != nil {
			return err
		}
		result.TrialEligible = eligible

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) ResolveForWrite(ctx context.Context, params identitydomain.ResolveParams) (snowflake.ID, error) {
	if params.UserID != nil {
		return *params.UserID, nil
	}

	externalID := strings.TrimSpace(params.ExternalID)
	if externalID == "" {
		return 0, identitydomain.ErrEmptyExternalID
	}
	provider := normalizeProvider(params.Provider)

	var userID snowflake.ID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindIdentity(ctx, tx, provider, externalID, true)
		if err != nil {
			return err
		}
		if identity == nil {
			identity = &identitydomain.ExternalIdentity{
				ID:         s.genID.Generate(),
				Provider:   provider,
				ExternalID: externalID,
			}
			if err := s.repo.InsertIdentity(ctx, tx, identity); err != nil {
				return err
			}
		}
		if identity.UserID == nil {
			user := &identitydomain.User{
				ID:        s.genID.Generate(),
				Username:  fmt.Sprintf("billable_%s_%s", provider, externalID),
				CreatedAt: time.Now().UTC(),
			}
			if err := s.repo.InsertUser(ctx, tx, user); err != nil {
				return err
			}
			if err := s.repo.LinkIdentityUser(ctx, tx, identity.ID, user.ID); err != nil {
				return err
			}
			identity.UserID = &user.ID
		}
		userID = *identity.UserID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *Service) ResolveForRead(ctx context.Context, params identitydomain.ResolveParams) (snowflake.ID, error) {
	if params.UserID != nil {
		return *params.UserID, nil
	}

	externalID := strings.TrimSpace(params.ExternalID)
	if externalID == "" {
		return 0, identitydomain.ErrResolveParamsRequired
	}
	provider := normalizeProvider(params.Provider)

	identity, err := s.repo.FindIdentity(ctx, s.db, provider, externalID, false)
	if err != nil {
		return 0, err
	}
	if identity == nil || identity.UserID == nil {
		return 0, identitydomain.ErrIdentityNotFound
	}
	return *identity.UserID, nil
}

func (s *Service) GetIdentity(ctx context.Context, provider, externalID string) (*identitydomain.ExternalIdentity, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, identitydomain.ErrResolveParamsRequired
	}
	provider = normalizeProvider(provider)

	identity, err := s.repo.FindIdentity(ctx, s.db, provider, externalID, false)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, identitydomain.ErrIdentityNotFound
	}
	return identity, nil
}

// BackfillIdentities implements the admin identities-backfill maintenance
// operation: every unlinked identity is re-resolved through the same
// write-path rule ResolveForWrite applies to a fresh request, materializing
// a user for it. Each row is resolved in its own transaction so one bad
// row cannot block the rest of the sweep.
func (s *Service) BackfillIdentities(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.ListUnlinked(ctx, s.db, limit)
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, row := range rows {
		if _, err := s.ResolveForWrite(ctx, identitydomain.ResolveParams{
			Provider:   row.Provider,
			ExternalID: row.ExternalID,
		}); err != nil {
			s.log.Warn("backfill: failed to resolve identity",
				zap.String("provider", row.Provider),
				zap.Error(err))
			continue
		}
		linked++
	}
	return linked, nil
}

// isTrialEligible mirrors trial-grant's reuse guard (SHA-256 of the
// lower-cased, trimmed identity value) as a read-only check, so /identify
// can echo trial_eligible without the identity package depending on the
// referral package's service.
func (s *Service) isTrialEligible(ctx context.Context, tx *gorm.DB, identityType, identityValue string) (bool, error) {
	hash := identityhash.Hash(identityValue)
	var count int64
	if err := tx.WithContext(ctx).
		Table("trial_histories").
		Where("identity_type = ? AND identity_hash = ?", identityType, hash).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
