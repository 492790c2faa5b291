package models

import (
	"time"

	"github.com/propmarket/portal/pkg/types"

	"gorm.io/datatypes"
)

// Subscription is the live paid-access window embedded in each paying user
// row. Active must be interpreted jointly with ExpiresAt: the flag alone is
// not proof of payment.
type Subscription struct {
	Active bool `gorm:"column:sub_active;not null;default:false" json:"active"`
	// PaidAt is the most recent successful payment time. LastPaidAt is the
	// historical field name; rows written before the rename carry only it,
	// so readers must go through EffectivePaidAt.
	PaidAt        *time.Time `gorm:"column:sub_paid_at" json:"paid_at"`
	LastPaidAt    *time.Time `gorm:"column:sub_last_paid_at" json:"last_paid_at,omitempty"`
	ExpiresAt     *time.Time `gorm:"column:sub_expires_at" json:"expires_at"`
	Amount        float64    `gorm:"column:sub_amount" json:"amount"`
	Currency      string     `gorm:"column:sub_currency;type:varchar(8)" json:"currency"`
	Gateway       string     `gorm:"column:sub_gateway;type:varchar(32)" json:"gateway"`
	OrderID       string     `gorm:"column:sub_order_id;type:varchar(128)" json:"order_id"`
	PaymentID     string     `gorm:"column:sub_payment_id;type:varchar(128)" json:"payment_id"`
	PaymentStatus string     `gorm:"column:sub_payment_status;type:varchar(32)" json:"payment_status"`
}

// EffectivePaidAt returns the payment timestamp regardless of which of the
// two historical columns holds it.
func (s *Subscription) EffectivePaidAt() *time.Time {
	if s == nil {
		return nil
	}
	if s.PaidAt != nil {
		return s.PaidAt
	}
	return s.LastPaidAt
}

// User is one account. Only payable roles carry a meaningful Subscription.
type User struct {
	ID           string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Role         types.Role     `gorm:"column:role;type:varchar(32);not null;index" json:"role"`
	Name         string         `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Email        string         `gorm:"column:email;type:varchar(128);not null;uniqueIndex" json:"email"`
	Phone        string         `gorm:"column:phone;type:varchar(32)" json:"phone"`
	Subscription Subscription   `gorm:"embedded" json:"subscription"`
	Profile      datatypes.JSON `gorm:"column:profile;type:jsonb;default:'{}'" json:"profile"`
	Documents    datatypes.JSON `gorm:"column:documents;type:jsonb;default:'[]'" json:"documents"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
