package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"gigmarket/internal/domain/model"

	"github.com/hibiken/asynq"
)

const taskPrefix = "notify:"

// 通知の種類ごとにタスク名を分ける（notify:order_created など）
func TaskType(kind model.NotificationKind) string {
	return taskPrefix + string(kind)
}

var allKinds = []model.NotificationKind{
	model.NotificationOrderCreated,
	model.NotificationStatusUpdated,
	model.NotificationPaymentApproved,
	model.NotificationPaymentRejected,
	model.NotificationWorkDelivered,
	model.NotificationReviewReceived,
	model.NotificationPayoutProcessed,
	model.NotificationMessageReceived,
}

func NewTask(n model.Notification) (*asynq.Task, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return asynq.NewTask(TaskType(n.Kind), b), nil
}

func decodeTask(t *asynq.Task) (model.Notification, error) {
	var n model.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return model.Notification{}, fmt.Errorf("unmarshal %s: %w", t.Type(), err)
	}
	if want := strings.TrimPrefix(t.Type(), taskPrefix); string(n.Kind) != want {
		return model.Notification{}, fmt.Errorf("task %s carries kind %q", t.Type(), n.Kind)
	}
	return n, nil
}
