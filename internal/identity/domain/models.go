package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DefaultProvider is used when a caller omits the identity provider.
const DefaultProvider = "default"

// User is the minimal local identity materialized by the resolver. No
// other component is permitted to create one.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Username  string       `gorm:"column:username;not null;uniqueIndex" json:"username"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

// ExternalIdentity maps (provider, external_id) to a local user.
type ExternalIdentity struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Provider   string            `gorm:"column:provider;not null;uniqueIndex:ux_identity_provider_external,priority:1" json:"provider"`
	ExternalID string            `gorm:"column:external_id;not null;uniqueIndex:ux_identity_provider_external,priority:2" json:"external_id"`
	UserID     *snowflake.ID     `gorm:"column:user_id" json:"user_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ExternalIdentity) TableName() string { return "external_identities" }
