// Package repository implements the storage adapter slice owned by the
// identity resolver, grounded on the teacher's raw-SQL repository style
// (internal/product/repository in smallbiznis-valora).
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

// Provide constructs the identity Repository for fx wiring.
func Provide() identitydomain.Repository {
	return &repo{}
}

func (r *repo) FindIdentity(ctx context.Context, db *gorm.DB, provider, externalID string, lock bool) (*identitydomain.ExternalIdentity, error) {
	stmt := db.WithContext(ctx).Where("provider = ? AND external_id = ?", provider, externalID)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var identity identitydomain.ExternalIdentity
	if err := stmt.First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *repo) InsertIdentity(ctx context.Context, db *gorm.DB, identity *identitydomain.ExternalIdentity) error {
	return db.WithContext(ctx).Create(identity).Error
}

func (r *repo) LinkIdentityUser(ctx context.Context, db *gorm.DB, id snowflake.ID, userID snowflake.ID) error {
	return db.WithContext(ctx).Model(&identitydomain.ExternalIdentity{}).
		Where("id = ?", id).
		Update("user_id", userID).Error
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *identitydomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*identitydomain.User, error) {
	var user identitydomain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) ListUnlinked(ctx context.Context, db *gorm.DB, limit int) ([]identitydomain.ExternalIdentity, error) {
	var rows []identitydomain.ExternalIdentity
	stmt := db.WithContext(ctx).Where("user_id IS NULL").Order("created_at ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
