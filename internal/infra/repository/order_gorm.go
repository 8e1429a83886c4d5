package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, mapReadError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapReadError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByParticipant(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("client_id = ? OR freelancer_id = ?", userID, userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, mapWriteError(err)
	}
	return order.ID, nil
}

// 遷移で変わりうる列だけ書く。WHEREに直前の状態を入れてcompare-and-set
func (r *OrderGormRepository) UpdateTransition(ctx context.Context, before model.Order, after model.Order) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", before.ID, before.Status, before.PaymentStatus).
		Updates(map[string]any{
			"status":              after.Status,
			"payment_status":      after.PaymentStatus,
			"payment_notes":       after.PaymentNotes,
			"client_confirmed":    after.ClientConfirmed,
			"payment_verified_at": after.PaymentVerifiedAt,
			"cancelled_at":        after.CancelledAt,
			"completed_at":        after.CompletedAt,
			"updated_at":          after.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleOrder
	}
	return nil
}

func (r *OrderGormRepository) SaveProof(ctx context.Context, orderID int64, transactionRef string, screenshot string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status <> ?", orderID, model.OrderStatusPending, model.PaymentStatusVerified).
		Updates(map[string]any{
			"transaction_ref":    transactionRef,
			"payment_screenshot": screenshot,
			"updated_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleOrder
	}
	return nil
}
