// Package repository is the referral/trial storage adapter, grounded on
// internal/product/repository in smallbiznis-valora's raw-SQL-behind-an-
// interface shape.
package repository

import (
	"context"
	"errors"

	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

// Provide constructs the referral Repository for fx wiring.
func Provide() referraldomain.Repository {
	return &repo{}
}

func (r *repo) FindReferral(ctx context.Context, db *gorm.DB, referrerID, refereeID snowflake.ID) (*referraldomain.Referral, error) {
	var ref referraldomain.Referral
	err := db.WithContext(ctx).
		Where("referrer_id = ? AND referee_id = ?", referrerID, refereeID).
		First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func (r *repo) InsertReferral(ctx context.Context, db *gorm.DB, ref *referraldomain.Referral) error {
	return db.WithContext(ctx).Create(ref).Error
}

func (r *repo) CountByReferrer(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&referraldomain.Referral{}).
		Where("referrer_id = ?", referrerID).Count(&count).Error
	return count, err
}

func (r *repo) CountBonusesGranted(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&referraldomain.Referral{}).
		Where("referrer_id = ? AND bonus_granted = ?", referrerID, true).Count(&count).Error
	return count, err
}

// ListRefereeIDs returns every referee id a referrer has brought in, as
// strings, for the admin-facing stats export.
func (r *repo) ListRefereeIDs(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) ([]string, error) {
	var refs []referraldomain.Referral
	if err := db.WithContext(ctx).Model(&referraldomain.Referral{}).
		Where("referrer_id = ?", referrerID).Find(&refs).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RefereeID.String())
	}
	return ids, nil
}

func (r *repo) FindTrialHistory(ctx context.Context, db *gorm.DB, identityType, identityHash string) (*referraldomain.TrialHistory, error) {
	var h referraldomain.TrialHistory
	err := db.WithContext(ctx).
		Where("identity_type = ? AND identity_hash = ?", identityType, identityHash).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *repo) InsertTrialHistory(ctx context.Context, db *gorm.DB, h *referraldomain.TrialHistory) error {
	return db.WithContext(ctx).Create(h).Error
}
