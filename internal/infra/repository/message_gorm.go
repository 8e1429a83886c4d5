package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
)

type messageGormRepository struct {
	db *gorm.DB
}

func NewMessageGormRepository(db *gorm.DB) repo.MessageRepository {
	return &messageGormRepository{db: db}
}

func (r *messageGormRepository) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		// ux_messages_final_delivery に当たったらErrDuplicate
		return model.Message{}, mapWriteError(err)
	}
	return msg, nil
}

func (r *messageGormRepository) ExistsFinalDelivery(ctx context.Context, orderID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("order_id = ? AND file_type = ?", orderID, model.FileTypeFinalDelivery).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *messageGormRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Message, error) {
	var items []model.Message
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *messageGormRepository) MarkRead(ctx context.Context, orderID int64, readerID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("order_id = ? AND sender_id <> ? AND read_at IS NULL", orderID, readerID).
		Update("read_at", now)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
