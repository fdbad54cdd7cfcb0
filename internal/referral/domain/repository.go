package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the referral/trial storage adapter.
type Repository interface {
	FindReferral(ctx context.Context, db *gorm.DB, referrerID, refereeID snowflake.ID) (*Referral, error)
	InsertReferral(ctx context.Context, db *gorm.DB, r *Referral) error
	CountByReferrer(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) (int64, error)
	CountBonusesGranted(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) (int64, error)
	ListRefereeIDs(ctx context.Context, db *gorm.DB, referrerID snowflake.ID) ([]string, error)

	FindTrialHistory(ctx context.Context, db *gorm.DB, identityType, identityHash string) (*TrialHistory, error)
	InsertTrialHistory(ctx context.Context, db *gorm.DB, h *TrialHistory) error
}
