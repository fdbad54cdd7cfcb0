// Package domain defines the customer-merge utility: moving all of a
// source user's orders, quota batches, transactions, identities, and
// referrals onto a target user, grounded on
// original_source/billable/services/customer_service.py's
// merge_customers.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// MergeStats reports how many rows of each kind were moved.
type MergeStats struct {
	MovedIdentities   int64
	MovedOrders       int64
	MovedBatches      int64
	MovedTransactions int64
	MovedReferrals    int64
}

// Service merges a source user's data into a target user.
type Service interface {
	// Merge moves orders, quota batches, transactions, identities, and
	// referrals from sourceUserID to targetUserID. Source and target must
	// be different, existing users. On an identity-provider conflict
	// (both users hold a different external_id for the same provider) the
	// whole merge aborts with ErrIdentityConflict. Publishes
	// customers_merged on success.
	Merge(ctx context.Context, targetUserID, sourceUserID snowflake.ID) (*MergeStats, error)
}
