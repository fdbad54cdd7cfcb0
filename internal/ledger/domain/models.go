package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
)

// BatchState tracks a QuotaBatch's lifecycle (spec §3). ACTIVE transitions
// to exactly one terminal state; terminal states never transition back.
type BatchState string

const (
	BatchActive    BatchState = "ACTIVE"
	BatchExhausted BatchState = "EXHAUSTED"
	BatchExpired   BatchState = "EXPIRED"
	BatchRevoked   BatchState = "REVOKED"
)

// Direction is a Transaction's sign against its QuotaBatch.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// QuotaBatch is a single grant of one product to one user (spec §3).
type QuotaBatch struct {
	ID                ulid.ULID         `gorm:"primaryKey;type:bytea" json:"id"`
	UserID            snowflake.ID      `gorm:"column:user_id;not null;index:idx_batch_user_product" json:"user_id"`
	ProductID         snowflake.ID      `gorm:"column:product_id;not null;index:idx_batch_user_product" json:"product_id"`
	SourceOfferID     *snowflake.ID     `gorm:"column:source_offer_id" json:"source_offer_id,omitempty"`
	OrderItemID       *snowflake.ID     `gorm:"column:order_item_id;index" json:"order_item_id,omitempty"`
	InitialQuantity   int64             `gorm:"column:initial_quantity;not null" json:"initial_quantity"`
	RemainingQuantity int64             `gorm:"column:remaining_quantity;not null" json:"remaining_quantity"`
	ValidFrom         time.Time         `gorm:"column:valid_from;not null" json:"valid_from"`
	ExpiresAt         *time.Time        `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	State             BatchState        `gorm:"column:state;not null;index:idx_batch_user_product" json:"state"`
	Metadata          datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"column:created_at;not null" json:"created_at"`
}

func (QuotaBatch) TableName() string { return "quota_batches" }

// Transaction is one append-only ledger row against a QuotaBatch (spec §3).
type Transaction struct {
	ID           ulid.ULID         `gorm:"primaryKey;type:bytea" json:"id"`
	UserID       snowflake.ID      `gorm:"column:user_id;not null;index" json:"user_id"`
	QuotaBatchID ulid.ULID         `gorm:"column:quota_batch_id;type:bytea;not null;index" json:"quota_batch_id"`
	Amount       int64             `gorm:"column:amount;not null" json:"amount"`
	Direction    Direction         `gorm:"column:direction;not null" json:"direction"`
	ActionType   string            `gorm:"column:action_type;not null;index:idx_tx_user_action" json:"action_type"`
	ActionID     *string           `gorm:"column:action_id" json:"action_id,omitempty"`
	// IdempotencyKey mirrors the same key carried in Metadata, denormalized
	// into its own indexed column so CONSUME's idempotency lookup (spec
	// §4.3.2 step 1) is a plain equality query on every GORM backend
	// instead of a JSON-path query whose syntax differs across dialects.
	IdempotencyKey *string           `gorm:"column:idempotency_key;index:idx_tx_user_action" json:"-"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }
