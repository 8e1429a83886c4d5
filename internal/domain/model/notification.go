package model

type NotificationKind string

const (
	NotificationOrderCreated    NotificationKind = "order_created"
	NotificationStatusUpdated   NotificationKind = "status_updated"
	NotificationPaymentApproved NotificationKind = "payment_approved"
	NotificationPaymentRejected NotificationKind = "payment_rejected"
	NotificationWorkDelivered   NotificationKind = "work_delivered"
	NotificationReviewReceived  NotificationKind = "review_received"
	NotificationPayoutProcessed NotificationKind = "payout_processed"
	NotificationMessageReceived NotificationKind = "message_received"
)

type Recipient struct {
	UserID int64 `json:"user_id"`
	Party  Party `json:"party"`
}

// 通知1件（宛先1人）。キューにはこの形のままJSONで載せる
type Notification struct {
	Kind        NotificationKind  `json:"kind"`
	OrderID     int64             `json:"order_id,omitempty"`
	OrderNumber string            `json:"order_number,omitempty"`
	Status      OrderStatus       `json:"status,omitempty"`
	Recipient   Recipient         `json:"recipient"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// 注文の当事者をPartyから解決する
func (o Order) Recipient(p Party) Recipient {
	switch p {
	case PartyClient:
		return Recipient{UserID: o.ClientID, Party: PartyClient}
	case PartyFreelancer:
		return Recipient{UserID: o.FreelancerID, Party: PartyFreelancer}
	}
	return Recipient{}
}

// 注文に関する通知を宛先ごとに作る
func OrderNotifications(o Order, kind NotificationKind, audience []Party, extra map[string]string) []Notification {
	out := make([]Notification, 0, len(audience))
	for _, p := range audience {
		out = append(out, Notification{
			Kind:        kind,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Recipient:   o.Recipient(p),
			Extra:       extra,
		})
	}
	return out
}
