package repository

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
)

type MessageRepository interface {
	// final_deliveryの2件目はErrDuplicate
	Create(ctx context.Context, msg model.Message) (model.Message, error)
	ExistsFinalDelivery(ctx context.Context, orderID int64) (bool, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Message, error)

	// reader以外が送った未読を既読にする。更新件数を返す
	MarkRead(ctx context.Context, orderID int64, readerID int64, now time.Time) (int64, error)
}
