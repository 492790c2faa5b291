package models

import (
	"time"

	"github.com/propmarket/portal/pkg/types"
)

// SubscriptionLedger is the append-only payment history: one row per
// successful payment event. Rows are never mutated after creation except the
// sweep's active→expired status flip; renewals supersede by inserting a new
// row rather than rewriting the old one.
type SubscriptionLedger struct {
	ID        string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string             `gorm:"column:user_id;type:uuid;not null;index:idx_ledger_user_started,priority:1" json:"user_id"`
	Role      types.Role         `gorm:"column:role;type:varchar(32);not null" json:"role"`
	Status    types.LedgerStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	OrderID   string             `gorm:"column:order_id;type:varchar(128);not null;uniqueIndex" json:"order_id"`
	PaymentID string             `gorm:"column:payment_id;type:varchar(128)" json:"payment_id"`
	Amount    float64            `gorm:"column:amount;not null" json:"amount"`
	Currency  string             `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	StartedAt time.Time          `gorm:"column:started_at;not null;index:idx_ledger_user_started,priority:2,sort:desc" json:"started_at"`
	ExpiresAt time.Time          `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (SubscriptionLedger) TableName() string { return "subscription_ledger" }
