// Package repository defines the persistence boundary of the subscription
// subsystem. Flows depend on these interfaces; the GORM implementations live
// alongside and are wired through Fx.
package repository

import (
	"context"
	"time"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/types"
)

type Users interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailAndRole(ctx context.Context, email string, role types.Role) (*models.User, error)
	// GetByOrderID finds the user whose current subscription was paid
	// through the given order. Used to answer repeated verifies after the
	// staged record is consumed.
	GetByOrderID(ctx context.Context, orderID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	// SaveSubscription overwrites the embedded subscription in one write.
	// The value is deterministic given the same payment, so concurrent
	// writers converge (last write wins).
	SaveSubscription(ctx context.Context, userID string, sub models.Subscription) error
}

type Ledger interface {
	Append(ctx context.Context, entry *models.SubscriptionLedger) error
	ListActive(ctx context.Context) ([]*models.SubscriptionLedger, error)
	MarkExpired(ctx context.Context, id string) error
	Scan(ctx context.Context, req *ScanRequest) ([]*models.SubscriptionLedger, int64, error)
}

type Pending interface {
	Create(ctx context.Context, p *models.PendingRegistration) error
	Get(ctx context.Context, id string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ScanRequest is the admin listing query: filters plus pagination/sort.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}
