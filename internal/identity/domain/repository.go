package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage adapter slice this module owns.
type Repository interface {
	// FindIdentity looks up an identity row by (provider, external_id),
	// locked for update when tx is a transaction and lock is true.
	FindIdentity(ctx context.Context, db *gorm.DB, provider, externalID string, lock bool) (*ExternalIdentity, error)
	InsertIdentity(ctx context.Context, db *gorm.DB, identity *ExternalIdentity) error
	LinkIdentityUser(ctx context.Context, db *gorm.DB, id snowflake.ID, userID snowflake.ID) error
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)

	// ListUnlinked returns every ExternalIdentity row whose user_id is
	// still null, for the admin identities-backfill maintenance operation.
	ListUnlinked(ctx context.Context, db *gorm.DB, limit int) ([]ExternalIdentity, error)
}
