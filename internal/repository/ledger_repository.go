package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
)

// 残高と台帳。注文完了の入金と出金申請の記録
type LedgerRepository interface {
	// 注文完了の入金。同じorderIDの2回目はErrDuplicate
	CreditOrder(ctx context.Context, freelancerID int64, amount int64, orderID int64, now time.Time) error

	// 残高が足りるときだけbalance→pending_payoutへ移す
	HoldIfEnough(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) (bool, error)
	// 出金済み: pending_payoutから消す
	ReleaseHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error
	// 出金却下: pending_payoutからbalanceへ戻す
	RefundHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error

	// 未作成なら残高0のWallet
	Wallet(ctx context.Context, userID int64) (model.Wallet, error)
	Entries(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error)
}
