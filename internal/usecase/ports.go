package usecase

import (
	"context"
	"time"

	"gigmarket/internal/domain/model"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 通知の送り先（キューなど）。失敗しても遷移は戻さない
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// ファイル保存。返り値は保存先の参照（中身は解釈しない）
// Removeは保存後にTxが失敗したときの後始末に使う
type FileStore interface {
	Store(ctx context.Context, category string, filename string, data []byte) (string, error)
	Remove(ctx context.Context, ref string) error
}

const (
	CategoryPaymentScreenshots = "payment_screenshots"
	CategoryChatAttachments    = "chat_attachments"
)
