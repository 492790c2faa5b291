package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/tool"
	"github.com/propmarket/portal/pkg/types"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) Users { return &userRepo{db: db} }

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmailAndRole(ctx context.Context, email string, role types.Role) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ? AND role = ?", email, role).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user by email and role: %w", err)
	}
	return &u, nil
}

func (r *userRepo) GetByOrderID(ctx context.Context, orderID string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("sub_order_id = ?", orderID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user by order id: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = tool.GenerateUUIDV7()
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) SaveSubscription(ctx context.Context, userID string, sub models.Subscription) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"sub_active":         sub.Active,
		"sub_paid_at":        sub.PaidAt,
		"sub_last_paid_at":   sub.LastPaidAt,
		"sub_expires_at":     sub.ExpiresAt,
		"sub_amount":         sub.Amount,
		"sub_currency":       sub.Currency,
		"sub_gateway":        sub.Gateway,
		"sub_order_id":       sub.OrderID,
		"sub_payment_id":     sub.PaymentID,
		"sub_payment_status": sub.PaymentStatus,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
