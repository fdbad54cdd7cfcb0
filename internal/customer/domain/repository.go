package domain

import (
	"context"

	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the customer-merge storage adapter. It reaches directly
// into the identity/order/ledger/referral tables by raw update — the
// merge is a cross-cutting operation with no natural home in any single
// domain package, mirrored on merge_customers' own direct ORM updates.
type Repository interface {
	UserExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)

	ListIdentitiesByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]identitydomain.ExternalIdentity, error)
	FindIdentityByUserAndProvider(ctx context.Context, db *gorm.DB, userID snowflake.ID, provider string) (*identitydomain.ExternalIdentity, error)
	ReassignIdentity(ctx context.Context, db *gorm.DB, identityID, targetUserID snowflake.ID) error
	DeleteIdentity(ctx context.Context, db *gorm.DB, identityID snowflake.ID) error

	MoveOrders(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error)
	MoveBatches(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error)
	MoveTransactions(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error)
	MoveReferralsAsReferrer(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error)
	MoveReferralsAsReferee(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error)
	DeleteSelfReferral(ctx context.Context, db *gorm.DB, userID snowflake.ID) error
}
