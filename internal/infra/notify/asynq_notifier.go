package notify

import (
	"context"
	"fmt"
	"time"

	"gigmarket/internal/domain/model"

	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// 通知をasynqのキューに積む。実際の送信はworker側
type AsynqNotifier struct {
	client   enqueuer
	queue    string
	maxRetry int
}

func NewAsynqNotifier(client enqueuer, queue string) *AsynqNotifier {
	return &AsynqNotifier{client: client, queue: queue, maxRetry: 5}
}

func (n *AsynqNotifier) Notify(ctx context.Context, note model.Notification) error {
	task, err := NewTask(note)
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue(n.queue),
		asynq.MaxRetry(n.maxRetry),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
