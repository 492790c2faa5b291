package repository

import (
	"context"
	"fmt"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/tool"
	"github.com/propmarket/portal/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger { return &ledgerRepo{db: db} }

func (r *ledgerRepo) Append(ctx context.Context, entry *models.SubscriptionLedger) error {
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.Status == "" {
		entry.Status = types.LedgerStatusActive
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepo) ListActive(ctx context.Context) ([]*models.SubscriptionLedger, error) {
	var rows []*models.SubscriptionLedger
	if err := r.db.WithContext(ctx).
		Where("status = ?", types.LedgerStatusActive).
		Order("expires_at asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active ledger entries: %w", err)
	}
	return rows, nil
}

func (r *ledgerRepo) MarkExpired(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.SubscriptionLedger{}).
		Where("id = ? AND status = ?", id, types.LedgerStatusActive).
		Update("status", types.LedgerStatusExpired)
	if res.Error != nil {
		return fmt.Errorf("failed to mark ledger entry expired: %w", res.Error)
	}
	return nil
}

// filtersAnd combines admin filters into a single AND expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (r *ledgerRepo) Scan(ctx context.Context, req *ScanRequest) ([]*models.SubscriptionLedger, int64, error) {
	if req == nil {
		return nil, 0, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := r.db.WithContext(ctx).Model(&models.SubscriptionLedger{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	var rows []*models.SubscriptionLedger
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return rows, total, nil
}
