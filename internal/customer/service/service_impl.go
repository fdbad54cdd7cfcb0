// Package service implements the customer-merge utility, grounded on
// original_source/billable/services/customer_service.py's
// merge_customers, expressed in the teacher's fx.In-parameterized shape.
package service

import (
	"context"

	customerdomain "github.com/railzway/billing/internal/customer/domain"
	"github.com/railzway/billing/internal/events"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo customerdomain.Repository
	Bus  *events.Bus
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo customerdomain.Repository
	bus  *events.Bus
}

// New constructs the customer Service for fx wiring.
func New(p Params) customerdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("customer.service"),
		repo: p.Repo,
		bus:  p.Bus,
	}
}

// Merge implements merge_customers: moves all of a source user's data
// onto a target user inside one transaction.
func (s *Service) Merge(ctx context.Context, targetUserID, sourceUserID snowflake.ID) (*customerdomain.MergeStats, error) {
	if targetUserID == sourceUserID {
		return nil, customerdomain.ErrSameUser
	}

	stats := &customerdomain.MergeStats{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		targetExists, err := s.repo.UserExists(ctx, tx, targetUserID)
		if err != nil {
			return err
		}
		if !targetExists {
			return customerdomain.ErrUserNotFound
		}
		sourceExists, err := s.repo.UserExists(ctx, tx, sourceUserID)
		if err != nil {
			return err
		}
		if !sourceExists {
			return customerdomain.ErrUserNotFound
		}

		if err := s.mergeIdentities(ctx, tx, targetUserID, sourceUserID, stats); err != nil {
			return err
		}

		moved, err := s.repo.MoveOrders(ctx, tx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		stats.MovedOrders = moved

		moved, err = s.repo.MoveBatches(ctx, tx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		stats.MovedBatches = moved

		moved, err = s.repo.MoveTransactions(ctx, tx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		stats.MovedTransactions = moved

		movedAsReferrer, err := s.repo.MoveReferralsAsReferrer(ctx, tx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		movedAsReferee, err := s.repo.MoveReferralsAsReferee(ctx, tx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		stats.MovedReferrals = movedAsReferrer + movedAsReferee

		return s.repo.DeleteSelfReferral(ctx, tx, targetUserID)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{
		Type: events.CustomersMerged,
		Payload: map[string]any{
			"target_user_id": targetUserID.String(),
			"source_user_id": sourceUserID.String(),
		},
	})
	return stats, nil
}

// mergeIdentities implements merge_customers' step 1: for each of the
// source's external identities, re-link it to the target unless the
// target already holds one for the same provider. A same-provider,
// same-external_id pair is dropped (the source row is redundant); a
// same-provider, different-external_id pair aborts the whole merge.
func (s *Service) mergeIdentities(ctx context.Context, tx *gorm.DB, targetUserID, sourceUserID snowflake.ID, stats *customerdomain.MergeStats) error {
	identities, err := s.repo.ListIdentitiesByUser(ctx, tx, sourceUserID)
	if err != nil {
		return err
	}

	for _, identity := range identities {
		existing, err := s.repo.FindIdentityByUserAndProvider(ctx, tx, targetUserID, identity.Provider)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.repo.ReassignIdentity(ctx, tx, identity.ID, targetUserID); err != nil {
				return err
			}
			stats.MovedIdentities++
			continue
		}
		if existing.ExternalID == identity.ExternalID {
			if err := s.repo.DeleteIdentity(ctx, tx, identity.ID); err != nil {
				return err
			}
			continue
		}
		return customerdomain.ErrIdentityConflict
	}
	return nil
}
