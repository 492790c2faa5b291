package models

import (
	"time"

	"github.com/propmarket/portal/pkg/types"

	"gorm.io/datatypes"
)

// PendingRegistration stages user-submitted data while a payment order is
// outstanding. It is pre-identity: no user row exists yet. Consumed (read
// once and deleted) on verified payment; stale rows are purged by the sweep.
type PendingRegistration struct {
	ID        string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Role      types.Role     `gorm:"column:role;type:varchar(32);not null" json:"role"`
	Name      string         `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Email     string         `gorm:"column:email;type:varchar(128);not null" json:"email"`
	Phone     string         `gorm:"column:phone;type:varchar(32)" json:"phone"`
	Profile   datatypes.JSON `gorm:"column:profile;type:jsonb;default:'{}'" json:"profile"`
	Documents datatypes.JSON `gorm:"column:documents;type:jsonb;default:'[]'" json:"documents"`
	OrderID   string         `gorm:"column:order_id;type:varchar(128);not null;index" json:"order_id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (PendingRegistration) TableName() string { return "pending_registration" }
