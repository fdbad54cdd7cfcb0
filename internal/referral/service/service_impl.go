// Package service implements referral assignment and the trial-reuse
// guard, grounded on original_source/billable/services/referral_service.py
// and original_source/billable/models.py's generate_identity_hash/
// has_used_trial, expressed in the teacher's fx.In-parameterized shape.
package service

import (
	"context"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/railzway/billing/internal/clock"
	"github.com/railzway/billing/internal/events"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"github.com/railzway/billing/internal/identityhash"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     referraldomain.Repository
	Catalog  catalogdomain.Service
	Ledger   ledgerdomain.Service
	Identity identitydomain.Service
	Bus      *events.Bus
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     referraldomain.Repository
	catalog  catalogdomain.Service
	ledger   ledgerdomain.Service
	identity identitydomain.Service
	bus      *events.Bus
}

// New constructs the referral Service for fx wiring.
func New(p Params) referraldomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("referral.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		catalog:  p.Catalog,
		ledger:   p.Ledger,
		identity: p.Identity,
		bus:      p.Bus,
	}
}

// CreateReferral implements spec §4.5's two assignment modes.
func (s *Service) CreateReferral(ctx context.Context, params referraldomain.CreateReferralParams) (*referraldomain.CreateReferralResult, error) {
	referrerID, refereeID, err := s.resolvePair(ctx, params)
	if err != nil {
		return nil, err
	}
	if referrerID == refereeID {
		return nil, referraldomain.ErrSelfReferral
	}

	existing, err := s.repo.FindReferral(ctx, s.db, referrerID, refereeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &referraldomain.CreateReferralResult{Referral: existing, Created: false}, nil
	}

	ref := &referraldomain.Referral{
		ID:         s.genID.Generate(),
		ReferrerID: referrerID,
		RefereeID:  refereeID,
		Metadata:   datatypes.JSONMap(params.Metadata),
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.InsertReferral(ctx, s.db, ref); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{
		Type: events.ReferralAttached,
		Payload: map[string]any{
			"referrer_id": referrerID.String(),
			"referee_id":  refereeID.String(),
		},
	})
	return &referraldomain.CreateReferralResult{Referral: ref, Created: true}, nil
}

// resolvePair implements local-id mode (params take precedence) and the
// lookup-only external-id mode: a missing identity fails the whole call,
// no user is created (spec §4.5).
func (s *Service) resolvePair(ctx context.Context, params referraldomain.CreateReferralParams) (snowflake.ID, snowflake.ID, error) {
	if params.ReferrerID != nil && params.RefereeID != nil {
		return *params.ReferrerID, *params.RefereeID, nil
	}

	referrer, err := s.identity.GetIdentity(ctx, params.Provider, params.ReferrerExternalID)
	if err != nil || referrer == nil || referrer.UserID == nil {
		return 0, 0, referraldomain.ErrIdentityNotFound
	}
	referee, err := s.identity.GetIdentity(ctx, params.Provider, params.RefereeExternalID)
	if err != nil || referee == nil || referee.UserID == nil {
		return 0, 0, referraldomain.ErrIdentityNotFound
	}
	return *referrer.UserID, *referee.UserID, nil
}

func (s *Service) GetStats(ctx context.Context, referrerID snowflake.ID) (*referraldomain.Stats, error) {
	total, err := s.repo.CountByReferrer(ctx, s.db, referrerID)
	if err != nil {
		return nil, err
	}
	granted, err := s.repo.CountBonusesGranted(ctx, s.db, referrerID)
	if err != nil {
		return nil, err
	}
	refereeIDs, err := s.repo.ListRefereeIDs(ctx, s.db, referrerID)
	if err != nil {
		return nil, err
	}
	return &referraldomain.Stats{
		ReferrerID:     referrerID,
		TotalReferred:  total,
		BonusesGranted: granted,
		RefereeIDs:     pq.StringArray(refereeIDs),
	}, nil
}

// GrantTrial implements spec §4.5's trial-grant reference implementation:
// check every supplied identity against TrialHistory first, fail fast if
// any was already used, otherwise grant and record all of them.
func (s *Service) GrantTrial(ctx context.Context, userID snowflake.ID, sku string, identities []referraldomain.Identity) error {
	if len(identities) == 0 {
		return referraldomain.ErrNoIdentities
	}

	for _, id := range identities {
		hash := identityhash.Hash(id.Value)
		existing, err := s.repo.FindTrialHistory(ctx, s.db, id.Type, hash)
		if err != nil {
			return err
		}
		if existing != nil {
			return referraldomain.ErrTrialAlreadyUsed
		}
	}

	offer, err := s.catalog.GetActiveOffer(ctx, sku)
	if err != nil {
		return referraldomain.ErrTrialOfferNotFound
	}

	if _, err := s.ledger.Grant(ctx, userID, offer, nil, 1, "trial_activation", nil); err != nil {
		return err
	}

	for _, id := range identities {
		hist := &referraldomain.TrialHistory{
			ID:            s.genID.Generate(),
			IdentityType:  id.Type,
			IdentityHash:  identityhash.Hash(id.Value),
			TrialPlanName: offer.SKU,
			UsedAt:        s.clock.Now(),
		}
		if err := s.repo.InsertTrialHistory(ctx, s.db, hist); err != nil {
			return err
		}
	}

	s.bus.Publish(ctx, events.Event{
		Type: events.TrialActivated,
		Payload: map[string]any{
			"user_id": userID.String(),
			"sku":     offer.SKU,
		},
	})
	return nil
}
