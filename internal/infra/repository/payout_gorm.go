package repository

import (
	"context"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type payoutGormRepository struct {
	db *gorm.DB
}

func NewPayoutGormRepository(db *gorm.DB) repo.PayoutRepository {
	return &payoutGormRepository{db: db}
}

func (r *payoutGormRepository) Create(ctx context.Context, payout model.Payout) (model.Payout, error) {
	if err := r.db.WithContext(ctx).Create(&payout).Error; err != nil {
		return model.Payout{}, mapWriteError(err)
	}
	return payout, nil
}

func (r *payoutGormRepository) FindByIDForUpdate(ctx context.Context, payoutID int64) (model.Payout, error) {
	var p model.Payout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", payoutID).
		First(&p).Error
	if err != nil {
		return model.Payout{}, mapReadError(err)
	}
	return p, nil
}

func (r *payoutGormRepository) Resolve(ctx context.Context, after model.Payout) error {
	res := r.db.WithContext(ctx).Model(&model.Payout{}).
		Where("id = ? AND status = ?", after.ID, model.PayoutRequested).
		Updates(map[string]any{
			"status":       after.Status,
			"notes":        after.Notes,
			"processed_by": after.ProcessedBy,
			"processed_at": after.ProcessedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStalePayout
	}
	return nil
}

func (r *payoutGormRepository) ListByFreelancer(ctx context.Context, freelancerID int64, limit int) ([]model.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var items []model.Payout
	err := r.db.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
