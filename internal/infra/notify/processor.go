package notify

import (
	"context"
	"errors"
	"fmt"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"

	"github.com/hibiken/asynq"
)

type recipientFinder interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
}

type sink interface {
	Notify(ctx context.Context, note model.Notification) error
}

// workerでnotify:*を処理する。宛先を引いてメール送信、画面向けにpublish
type Processor struct {
	users  recipientFinder
	mailer Mailer
	feed   sink
	log    logger.Logger
}

func NewProcessor(users recipientFinder, mailer Mailer, feed sink, log logger.Logger) *Processor {
	return &Processor{users: users, mailer: mailer, feed: feed, log: log}
}

func (p *Processor) Register(mux *asynq.ServeMux) {
	for _, k := range allKinds {
		mux.Handle(TaskType(k), p)
	}
}

func (p *Processor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := decodeTask(t)
	if err != nil {
		// 壊れたpayloadは再試行しても直らない
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	ctx = logger.WithOrderID(ctx, n.OrderID)

	u, err := p.users.FindByID(ctx, n.Recipient.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		p.log.Warnf(ctx, "[notify] recipient %d not found, dropping %s", n.Recipient.UserID, n.Kind)
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		p.log.Infof(ctx, "[notify] recipient %d inactive, skip %s", u.ID, n.Kind)
		return nil
	}

	if err := p.mailer.Send(ctx, render(n, u.Email)); err != nil {
		p.log.Errorf(ctx, "[notify][ERROR] %s mail failed: %v", n.Kind, err)
		return err
	}

	// 画面向けは失敗しても再送しない（メールは送れているので）
	if p.feed != nil {
		if err := p.feed.Notify(ctx, n); err != nil {
			p.log.Warnf(ctx, "[notify] publish %s failed: %v", n.Kind, err)
		}
	}
	return nil
}
