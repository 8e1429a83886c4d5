package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerGormRepository struct {
	db *gorm.DB
}

func NewLedgerGormRepository(db *gorm.DB) repo.LedgerRepository {
	return &ledgerGormRepository{db: db}
}

// 台帳行を先に入れる。ux_ledger_order_creditで二重入金はここで止まる
func (r *ledgerGormRepository) CreditOrder(ctx context.Context, freelancerID int64, amount int64, orderID int64, now time.Time) error {
	oid := orderID
	entry := model.LedgerEntry{
		UserID:    freelancerID,
		OrderID:   &oid,
		Type:      model.LedgerOrderCredit,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return mapWriteError(err)
	}

	// walletが無ければ作って加算（upsert）
	w := model.Wallet{UserID: freelancerID, Balance: amount, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("wallets.balance + ?", amount),
			"updated_at": now,
		}),
	}).Create(&w).Error
}

func (r *ledgerGormRepository) HoldIfEnough(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]any{
			"balance":        gorm.Expr("balance - ?", amount),
			"pending_payout": gorm.Expr("pending_payout + ?", amount),
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.entry(ctx, userID, payoutID, model.LedgerPayoutHold, -amount, now)
}

func (r *ledgerGormRepository) ReleaseHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND pending_payout >= ?", userID, amount).
		Updates(map[string]any{
			"pending_payout": gorm.Expr("pending_payout - ?", amount),
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrInsufficientBalance
	}
	return r.entry(ctx, userID, payoutID, model.LedgerPayoutRelease, amount, now)
}

func (r *ledgerGormRepository) RefundHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND pending_payout >= ?", userID, amount).
		Updates(map[string]any{
			"balance":        gorm.Expr("balance + ?", amount),
			"pending_payout": gorm.Expr("pending_payout - ?", amount),
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrInsufficientBalance
	}
	return r.entry(ctx, userID, payoutID, model.LedgerPayoutRefund, amount, now)
}

func (r *ledgerGormRepository) entry(ctx context.Context, userID int64, payoutID int64, typ model.LedgerEntryType, amount int64, now time.Time) error {
	pid := payoutID
	return r.db.WithContext(ctx).Create(&model.LedgerEntry{
		UserID:    userID,
		PayoutID:  &pid,
		Type:      typ,
		Amount:    amount,
		CreatedAt: now,
	}).Error
}

func (r *ledgerGormRepository) Wallet(ctx context.Context, userID int64) (model.Wallet, error) {
	var w model.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		if mapReadError(err) == repo.ErrNotFound {
			return model.Wallet{UserID: userID}, nil
		}
		return model.Wallet{}, err
	}
	return w, nil
}

func (r *ledgerGormRepository) Entries(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var items []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
