package repository

import (
	"context"

	"gigmarket/internal/domain/model"
)

// 認証は外部。トークンバージョン確認と通知先の解決に使う
type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
}
