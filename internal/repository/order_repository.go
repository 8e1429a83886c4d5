package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// SELECT ... FOR UPDATE（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	// 参加者（client/freelancer）としての注文一覧
	ListByParticipant(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// 遷移結果を書く。beforeのstatus/payment_statusが一致しなければErrStaleOrder
	UpdateTransition(ctx context.Context, before model.Order, after model.Order) error

	// 支払い証明を保存（pendingかつ未確認のときだけ）
	SaveProof(ctx context.Context, orderID int64, transactionRef string, screenshot string, now time.Time) error
}
