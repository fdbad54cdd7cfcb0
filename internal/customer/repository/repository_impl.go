// Package repository is the customer-merge storage adapter, grounded on
// original_source/billable/services/customer_service.py's direct
// queryset .update() calls, translated to GORM raw updates.
package repository

import (
	"context"
	"errors"

	customerdomain "github.com/railzway/billing/internal/customer/domain"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

// Provide constructs the customer Repository for fx wiring.
func Provide() customerdomain.Repository {
	return &repo{}
}

func (r *repo) UserExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&identitydomain.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repo) ListIdentitiesByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]identitydomain.ExternalIdentity, error) {
	var identities []identitydomain.ExternalIdentity
	err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&identities).Error
	return identities, err
}

func (r *repo) FindIdentityByUserAndProvider(ctx context.Context, db *gorm.DB, userID snowflake.ID, provider string) (*identitydomain.ExternalIdentity, error) {
	var identity identitydomain.ExternalIdentity
	err := db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *repo) ReassignIdentity(ctx context.Context, db *gorm.DB, identityID, targetUserID snowflake.ID) error {
	return db.WithContext(ctx).Model(&identitydomain.ExternalIdentity{}).
		Where("id = ?", identityID).Update("user_id", targetUserID).Error
}

func (r *repo) DeleteIdentity(ctx context.Context, db *gorm.DB, identityID snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", identityID).Delete(&identitydomain.ExternalIdentity{}).Error
}

func (r *repo) MoveOrders(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&orderdomain.Order{}).Where("user_id = ?", sourceUserID).Update("user_id", targetUserID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) MoveBatches(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&ledgerdomain.QuotaBatch{}).Where("user_id = ?", sourceUserID).Update("user_id", targetUserID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) MoveTransactions(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&ledgerdomain.Transaction{}).Where("user_id = ?", sourceUserID).Update("user_id", targetUserID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) MoveReferralsAsReferrer(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&referraldomain.Referral{}).Where("referrer_id = ?", sourceUserID).Update("referrer_id", targetUserID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) MoveReferralsAsReferee(ctx context.Context, db *gorm.DB, sourceUserID, targetUserID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&referraldomain.Referral{}).Where("referee_id = ?", sourceUserID).Update("referee_id", targetUserID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteSelfReferral(ctx context.Context, db *gorm.DB, userID snowflake.ID) error {
	return db.WithContext(ctx).Where("referrer_id = ? AND referee_id = ?", userID, userID).Delete(&referraldomain.Referral{}).Error
}
