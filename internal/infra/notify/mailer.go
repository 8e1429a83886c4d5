package notify

import (
	"context"
	"fmt"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
)

type Envelope struct {
	To      string
	Subject string
	Body    string
}

// メール送信は外部。ここでは宛先と件名をログに出すだけ
type Mailer interface {
	Send(ctx context.Context, env Envelope) error
}

type LogMailer struct {
	log logger.Logger
}

func NewLogMailer(log logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, env Envelope) error {
	m.log.Infof(ctx, "[notify] mail sent to=%s subject=%q", env.To, env.Subject)
	return nil
}

// 種類ごとの件名と本文
func render(n model.Notification, to string) Envelope {
	env := Envelope{To: to}
	switch n.Kind {
	case model.NotificationOrderCreated:
		env.Subject = "New order " + n.OrderNumber
		env.Body = fmt.Sprintf("Order %s was created and is waiting for payment.", n.OrderNumber)
	case model.NotificationStatusUpdated:
		env.Subject = "Order " + n.OrderNumber + " updated"
		env.Body = fmt.Sprintf("Order %s is now %s.", n.OrderNumber, n.Status)
		if ev := n.Extra["event"]; ev != "" {
			env.Body += " (" + ev + ")"
		}
	case model.NotificationPaymentApproved:
		env.Subject = "Payment verified for " + n.OrderNumber
		env.Body = fmt.Sprintf("Payment for order %s was verified. Work can start.", n.OrderNumber)
	case model.NotificationPaymentRejected:
		env.Subject = "Payment rejected for " + n.OrderNumber
		env.Body = fmt.Sprintf("Payment for order %s was rejected and the order was cancelled.", n.OrderNumber)
	case model.NotificationWorkDelivered:
		env.Subject = "Work delivered for " + n.OrderNumber
		env.Body = fmt.Sprintf("The freelancer delivered order %s. Please review it.", n.OrderNumber)
	case model.NotificationReviewReceived:
		env.Subject = "New review on " + n.OrderNumber
		env.Body = fmt.Sprintf("You received a %s star review.", n.Extra["rating"])
	case model.NotificationPayoutProcessed:
		env.Subject = "Payout processed"
		env.Body = fmt.Sprintf("Your payout of %s was processed.", n.Extra["amount"])
	case model.NotificationMessageReceived:
		env.Subject = "New message on " + n.OrderNumber
		env.Body = fmt.Sprintf("You have a new message on order %s.", n.OrderNumber)
	default:
		env.Subject = "Notification"
		env.Body = string(n.Kind)
	}
	return env
}
