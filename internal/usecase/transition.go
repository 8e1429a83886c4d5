package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"

	"gorm.io/datatypes"
)

// 注文遷移の共通処理（OrderUsecase / PaymentUsecase から使う）
type transitioner struct {
	tx       repo.TransactionManager
	notifier Notifier
	clock    Clock
	log      logger.Logger
}

// 監査ログに残す注文の状態
type orderSnapshot struct {
	Status          model.OrderStatus   `json:"status"`
	PaymentStatus   model.PaymentStatus `json:"payment_status"`
	ClientConfirmed bool                `json:"client_confirmed"`
	PaymentNotes    string              `json:"payment_notes,omitempty"`
}

func snapshotOf(o model.Order) orderSnapshot {
	return orderSnapshot{
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		ClientConfirmed: o.ClientConfirmed,
		PaymentNotes:    o.PaymentNotes,
	}
}

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// 参加者でも管理者でもなければ存在ごと隠す
func visible(o model.Order, a model.Actor) bool {
	return a.IsAdmin() || o.IsParticipant(a.UserID)
}

// ロックなしの読み取り。Tx前の事前チェック用
func findOrder(ctx context.Context, orders repo.OrderRepository, orderID int64, a model.Actor) (model.Order, error) {
	o, err := orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !visible(o, a) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	return o, nil
}

func lockOrder(ctx context.Context, r repo.TxRepos, orderID int64, a model.Actor) (model.Order, error) {
	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !visible(o, a) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	return o, nil
}

// Tx内で1件遷移させる。ロック→判定→更新→監査→（完了なら）入金
// 失敗したら何も書かない（Txごとrollback）
func (t *transitioner) applyInTx(ctx context.Context, r repo.TxRepos, orderID int64, req model.TransitionRequest) (model.Order, model.TransitionEffect, error) {
	before, err := lockOrder(ctx, r, orderID, req.Actor)
	if err != nil {
		return model.Order{}, model.TransitionEffect{}, err
	}

	after, eff, err := model.ApplyTransition(before, req)
	if err != nil {
		return model.Order{}, model.TransitionEffect{}, fromTransitionError(err)
	}

	if err := r.Orders().UpdateTransition(ctx, before, after); err != nil {
		if errors.Is(err, repo.ErrStaleOrder) {
			return model.Order{}, model.TransitionEffect{}, errInvalidTransition("order was modified concurrently")
		}
		return model.Order{}, model.TransitionEffect{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  req.Actor.UserID,
		ActorRole:    req.Actor.Role,
		Action:       model.AuditActionFor(req.Action),
		ResourceType: model.AuditResourceOrder,
		ResourceID:   before.ID,
		Before:       toJSON(snapshotOf(before)),
		After:        toJSON(snapshotOf(after)),
		CreatedAt:    req.Now,
	}); err != nil {
		return model.Order{}, model.TransitionEffect{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if eff.To == model.OrderStatusCompleted {
		// 注文IDが冪等キー。2回目はunique indexで止まる
		err := r.Ledger().CreditOrder(ctx, after.FreelancerID, eff.LedgerCredit, after.ID, req.Now)
		if errors.Is(err, repo.ErrDuplicate) {
			return model.Order{}, model.TransitionEffect{}, errInvalidTransition("order already completed")
		}
		if err != nil {
			return model.Order{}, model.TransitionEffect{}, NewHTTPError(http.StatusInternalServerError, "ledger error")
		}
	}
	return after, eff, nil
}

// 1件を独立したTxで遷移させて、commit後に通知する
func (t *transitioner) run(ctx context.Context, orderID int64, req model.TransitionRequest) (model.Order, error) {
	if !req.Actor.Valid() {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if req.Now.IsZero() {
		req.Now = t.clock.Now()
	}
	ctx = logger.WithOrderID(ctx, orderID)

	var after model.Order
	var eff model.TransitionEffect
	err := t.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		after, eff, err = t.applyInTx(ctx, r, orderID, req)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	t.log.Infof(ctx, "order %s %s: %s -> %s by %s %d",
		after.OrderNumber, req.Action, eff.From, eff.To, req.Actor.Role, req.Actor.UserID)

	dispatch(ctx, t.notifier, t.log, model.OrderNotifications(after, eff.Notify, eff.Audience, map[string]string{
		"action": string(req.Action),
		"from":   string(eff.From),
		"to":     string(eff.To),
	}))
	return after, nil
}
