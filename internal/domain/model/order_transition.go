package model

import "time"

type OrderAction string

const (
	ActionApprovePayment  OrderAction = "approve_payment"
	ActionRejectPayment   OrderAction = "reject_payment"
	ActionStartWork       OrderAction = "start_work"
	ActionDeliver         OrderAction = "deliver"
	ActionRequestRevision OrderAction = "request_revision"
	ActionRevert          OrderAction = "revert"
	ActionComplete        OrderAction = "complete"
	ActionCancel          OrderAction = "cancel"
)

type TransitionErrorKind string

const (
	TransitionInvalid    TransitionErrorKind = "invalid_transition"
	TransitionForbidden  TransitionErrorKind = "forbidden"
	TransitionValidation TransitionErrorKind = "validation"
)

// どの前提条件で失敗したかをReasonに持つ
type TransitionError struct {
	Kind   TransitionErrorKind
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Reason
}

func invalid(reason string) *TransitionError {
	return &TransitionError{Kind: TransitionInvalid, Reason: reason}
}

func forbidden(reason string) *TransitionError {
	return &TransitionError{Kind: TransitionForbidden, Reason: reason}
}

func validation(reason string) *TransitionError {
	return &TransitionError{Kind: TransitionValidation, Reason: reason}
}

type TransitionRequest struct {
	Action OrderAction
	Actor  Actor
	Now    time.Time
	Notes  string

	// 承認時のみ: trueならpayment_verifiedで止める（作業開始は別操作）
	HoldBeforeWork bool
}

// 通知先
type Party string

const (
	PartyClient     Party = "client"
	PartyFreelancer Party = "freelancer"
)

// 遷移の副作用。usecaseが同じTx内（台帳）とcommit後（通知）に適用する
type TransitionEffect struct {
	From         OrderStatus
	To           OrderStatus
	LedgerCredit int64
	Notify       NotificationKind
	Audience     []Party
}

type transitionRule struct {
	from     []OrderStatus
	notFrom  string
	guard    func(o Order, req TransitionRequest) *TransitionError
	apply    func(o *Order, req TransitionRequest)
	notify   NotificationKind
	audience []Party
}

var transitionTable = map[OrderAction]transitionRule{
	ActionApprovePayment: {
		from:    []OrderStatus{OrderStatusPending},
		notFrom: "order is not pending",
		guard: func(o Order, _ TransitionRequest) *TransitionError {
			if o.PaymentStatus == PaymentStatusVerified {
				return invalid("payment already verified")
			}
			if !o.HasPaymentProof() {
				return validation("payment proof not uploaded")
			}
			return nil
		},
		apply: func(o *Order, req TransitionRequest) {
			now := req.Now
			o.PaymentStatus = PaymentStatusVerified
			o.PaymentVerifiedAt = &now
			o.PaymentNotes = req.Notes
			if req.HoldBeforeWork {
				o.Status = OrderStatusPaymentVerified
			} else {
				o.Status = OrderStatusInProgress
			}
		},
		notify:   NotificationPaymentApproved,
		audience: []Party{PartyClient, PartyFreelancer},
	},
	ActionRejectPayment: {
		from:    []OrderStatus{OrderStatusPending},
		notFrom: "order is not pending",
		guard: func(o Order, _ TransitionRequest) *TransitionError {
			if o.PaymentStatus == PaymentStatusVerified {
				return invalid("payment already verified")
			}
			return nil
		},
		apply: func(o *Order, req TransitionRequest) {
			// 失敗とキャンセルは必ず同時に書く
			now := req.Now
			o.PaymentStatus = PaymentStatusFailed
			o.Status = OrderStatusCancelled
			o.CancelledAt = &now
			o.PaymentNotes = req.Notes
		},
		notify:   NotificationPaymentRejected,
		audience: []Party{PartyClient, PartyFreelancer},
	},
	ActionStartWork: {
		from:    []OrderStatus{OrderStatusPaymentVerified},
		notFrom: "payment is not awaiting work start",
		guard:   requireVerifiedPayment,
		apply: func(o *Order, _ TransitionRequest) {
			o.Status = OrderStatusInProgress
		},
		notify:   NotificationStatusUpdated,
		audience: []Party{PartyClient},
	},
	ActionDeliver: {
		from:    []OrderStatus{OrderStatusInProgress},
		notFrom: "order is not in progress",
		guard:   requireVerifiedPayment,
		apply: func(o *Order, _ TransitionRequest) {
			o.Status = OrderStatusReview
		},
		notify:   NotificationWorkDelivered,
		audience: []Party{PartyClient},
	},
	ActionRequestRevision: {
		from:    []OrderStatus{OrderStatusReview},
		notFrom: "order is not in review",
		apply: func(o *Order, _ TransitionRequest) {
			o.Status = OrderStatusInProgress
		},
		notify:   NotificationStatusUpdated,
		audience: []Party{PartyFreelancer},
	},
	ActionRevert: {
		from:    []OrderStatus{OrderStatusReview},
		notFrom: "order is not in review",
		apply: func(o *Order, _ TransitionRequest) {
			o.Status = OrderStatusInProgress
		},
		notify:   NotificationStatusUpdated,
		audience: []Party{PartyClient},
	},
	ActionComplete: {
		from:    []OrderStatus{OrderStatusReview},
		notFrom: "order is not in review",
		guard:   requireVerifiedPayment,
		apply: func(o *Order, req TransitionRequest) {
			now := req.Now
			o.Status = OrderStatusCompleted
			o.CompletedAt = &now
			if req.Actor.Role == RoleClient {
				o.ClientConfirmed = true
			}
		},
		notify:   NotificationStatusUpdated,
		audience: []Party{PartyClient, PartyFreelancer},
	},
	ActionCancel: {
		from: []OrderStatus{
			OrderStatusPending,
			OrderStatusPaymentVerified,
			OrderStatusInProgress,
			OrderStatusReview,
		},
		notFrom: "order cannot be cancelled",
		guard: func(o Order, req TransitionRequest) *TransitionError {
			if req.Actor.Role == RoleClient && o.Status != OrderStatusPending {
				return forbidden("client can only cancel a pending order")
			}
			return nil
		},
		apply: func(o *Order, req TransitionRequest) {
			now := req.Now
			o.Status = OrderStatusCancelled
			o.CancelledAt = &now
			if req.Notes != "" {
				o.PaymentNotes = req.Notes
			}
		},
		notify:   NotificationStatusUpdated,
		audience: []Party{PartyClient, PartyFreelancer},
	},
}

func requireVerifiedPayment(o Order, _ TransitionRequest) *TransitionError {
	if o.PaymentStatus != PaymentStatusVerified {
		return invalid("payment not yet verified")
	}
	return nil
}

// 誰がどの操作をできるか（roleごとに網羅）
func authorized(action OrderAction, o Order, a Actor) bool {
	switch a.Role {
	case RoleAdmin:
		switch action {
		case ActionApprovePayment, ActionRejectPayment, ActionStartWork,
			ActionRevert, ActionComplete, ActionCancel:
			return true
		case ActionDeliver, ActionRequestRevision:
			return false
		}
	case RoleFreelancer:
		if a.UserID != o.FreelancerID {
			return false
		}
		switch action {
		case ActionApprovePayment, ActionRejectPayment, ActionStartWork,
			ActionDeliver, ActionRevert:
			return true
		case ActionRequestRevision, ActionComplete, ActionCancel:
			return false
		}
	case RoleClient:
		if a.UserID != o.ClientID {
			return false
		}
		switch action {
		case ActionRequestRevision, ActionComplete, ActionCancel:
			return true
		case ActionApprovePayment, ActionRejectPayment, ActionStartWork,
			ActionDeliver, ActionRevert:
			return false
		}
	}
	return false
}

func terminalError(o Order) *TransitionError {
	switch o.Status {
	case OrderStatusCompleted:
		return invalid("order already completed")
	case OrderStatusCancelled:
		return invalid("order already cancelled")
	}
	return nil
}

// 遷移を1件適用する。失敗時は元のorderをそのまま返す（部分更新なし）
func ApplyTransition(o Order, req TransitionRequest) (Order, TransitionEffect, error) {
	rule, ok := transitionTable[req.Action]
	if !ok {
		return o, TransitionEffect{}, validation("unknown action")
	}
	if !req.Actor.Valid() {
		return o, TransitionEffect{}, forbidden("unauthorized")
	}
	if !authorized(req.Action, o, req.Actor) {
		return o, TransitionEffect{}, forbidden("not allowed to " + string(req.Action) + " this order")
	}

	// 終端ガード
	if err := terminalError(o); err != nil {
		return o, TransitionEffect{}, err
	}
	if rule.guard != nil {
		if err := rule.guard(o, req); err != nil {
			return o, TransitionEffect{}, err
		}
	}
	if !statusIn(o.Status, rule.from) {
		return o, TransitionEffect{}, invalid(rule.notFrom)
	}

	next := o
	rule.apply(&next, req)
	next.UpdatedAt = req.Now

	eff := TransitionEffect{
		From:     o.Status,
		To:       next.Status,
		Notify:   rule.notify,
		Audience: rule.audience,
	}
	if next.Status == OrderStatusCompleted {
		eff.LedgerCredit = next.TotalAmount
	}
	return next, eff, nil
}

// ある操作が現在の状態で可能か（UIのボタン表示用）
func CanApply(o Order, action OrderAction, a Actor) bool {
	_, _, err := ApplyTransition(o, TransitionRequest{Action: action, Actor: a, Now: o.UpdatedAt})
	return err == nil
}

func statusIn(s OrderStatus, list []OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
