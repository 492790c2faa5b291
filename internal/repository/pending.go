package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/tool"

	"gorm.io/gorm"
)

type pendingRepo struct {
	db *gorm.DB
}

func NewPending(db *gorm.DB) Pending { return &pendingRepo{db: db} }

func (r *pendingRepo) Create(ctx context.Context, p *models.PendingRegistration) error {
	if p.ID == "" {
		p.ID = tool.GenerateUUIDV7()
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to stage registration: %w", err)
	}
	return nil
}

func (r *pendingRepo) Get(ctx context.Context, id string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load staged registration: %w", err)
	}
	return &p, nil
}

func (r *pendingRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PendingRegistration{}).Error; err != nil {
		return fmt.Errorf("failed to delete staged registration: %w", err)
	}
	return nil
}

func (r *pendingRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.PendingRegistration{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge staged registrations: %w", res.Error)
	}
	return res.RowsAffected, nil
}
