package usecase

import (
	"context"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
)

// commit後に呼ぶ。失敗はログだけ（遷移は戻さない）
// commit済みなのでリクエストが切れても積む
func dispatch(ctx context.Context, n Notifier, log logger.Logger, notes []model.Notification) {
	if n == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, note := range notes {
		notifyOne(ctx, n, log, note)
	}
}

func notifyOne(ctx context.Context, n Notifier, log logger.Logger, note model.Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf(ctx, "notify %s to user %d panicked: %v", note.Kind, note.Recipient.UserID, r)
		}
	}()
	if err := n.Notify(ctx, note); err != nil {
		log.Warnf(ctx, "notify %s to user %d failed: %v", note.Kind, note.Recipient.UserID, err)
	}
}
