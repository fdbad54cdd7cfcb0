// Package domain holds the referral/trial types, grounded on
// original_source/billable/models.py's Referral and TrialHistory models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Referral links a referrer to the user they referred. A row is created
// at most once per (referrer, referee) pair (spec §4.5: duplicate
// assignment is idempotent).
type Referral struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	ReferrerID     snowflake.ID      `gorm:"column:referrer_id;not null;uniqueIndex:ux_referral_pair,priority:1" json:"referrer_id"`
	RefereeID      snowflake.ID      `gorm:"column:referee_id;not null;uniqueIndex:ux_referral_pair,priority:2" json:"referee_id"`
	BonusGranted   bool              `gorm:"column:bonus_granted;not null;default:false" json:"bonus_granted"`
	BonusGrantedAt *time.Time        `gorm:"column:bonus_granted_at" json:"bonus_granted_at,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Referral) TableName() string { return "referrals" }

// TrialHistory records that a given identity has already consumed a
// trial grant, keyed by the SHA-256 hash of the lower-cased identity
// value (internal/identityhash.Hash) rather than the raw value.
type TrialHistory struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	IdentityType  string       `gorm:"column:identity_type;not null;uniqueIndex:ux_trial_identity,priority:1" json:"identity_type"`
	IdentityHash  string       `gorm:"column:identity_hash;not null;uniqueIndex:ux_trial_identity,priority:2" json:"identity_hash"`
	TrialPlanName string       `gorm:"column:trial_plan_name;not null" json:"trial_plan_name"`
	UsedAt        time.Time    `gorm:"column:used_at;not null;default:CURRENT_TIMESTAMP" json:"used_at"`
}

func (TrialHistory) TableName() string { return "trial_histories" }
