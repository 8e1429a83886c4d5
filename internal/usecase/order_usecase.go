package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	audit    repo.AuditLogRepository
	notifier Notifier
	clock    Clock
	ids      IDGenerator
	log      logger.Logger
	flow     *transitioner
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	audit repo.AuditLogRepository,
	notifier Notifier,
	clock Clock,
	ids IDGenerator,
	log logger.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		orders:   orders,
		audit:    audit,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		log:      log,
		flow:     &transitioner{tx: tx, notifier: notifier, clock: clock, log: log},
	}
}

type CreateOrderInput struct {
	ServiceID int64
	PackageID *int64
}

type TransitionInput struct {
	Notes string
}

type OrderOutput struct {
	ID                int64               `json:"id"`
	OrderNumber       string              `json:"order_number"`
	ServiceID         int64               `json:"service_id"`
	ClientID          int64               `json:"client_id"`
	FreelancerID      int64               `json:"freelancer_id"`
	PackageName       string              `json:"package_name"`
	PackagePrice      int64               `json:"package_price"`
	ServiceFee        int64               `json:"service_fee"`
	TotalAmount       int64               `json:"total_amount"`
	DueDate           time.Time           `json:"due_date"`
	Status            model.OrderStatus   `json:"status"`
	PaymentStatus     model.PaymentStatus `json:"payment_status"`
	TransactionRef    *string             `json:"transaction_ref"`
	PaymentScreenshot *string             `json:"payment_screenshot"`
	PaymentNotes      string              `json:"payment_notes"`
	ClientConfirmed   bool                `json:"client_confirmed"`
	CreatedAt         time.Time           `json:"created_at"`
	PaymentVerifiedAt *time.Time          `json:"payment_verified_at"`
	CancelledAt       *time.Time          `json:"cancelled_at"`
	CompletedAt       *time.Time          `json:"completed_at"`

	// 操作者が今できる操作（ボタン表示用）
	Actions []model.OrderAction `json:"actions"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

var allActions = []model.OrderAction{
	model.ActionApprovePayment,
	model.ActionRejectPayment,
	model.ActionStartWork,
	model.ActionDeliver,
	model.ActionRequestRevision,
	model.ActionRevert,
	model.ActionComplete,
	model.ActionCancel,
}

func toOrderOutput(o model.Order, a model.Actor) OrderOutput {
	actions := make([]model.OrderAction, 0, 2)
	for _, act := range allActions {
		if model.CanApply(o, act, a) {
			actions = append(actions, act)
		}
	}
	return OrderOutput{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		ServiceID:         o.ServiceID,
		ClientID:          o.ClientID,
		FreelancerID:      o.FreelancerID,
		PackageName:       o.PackageName,
		PackagePrice:      o.PackagePrice,
		ServiceFee:        o.ServiceFee,
		TotalAmount:       o.TotalAmount,
		DueDate:           o.DueDate,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		TransactionRef:    o.TransactionRef,
		PaymentScreenshot: o.PaymentScreenshot,
		PaymentNotes:      o.PaymentNotes,
		ClientConfirmed:   o.ClientConfirmed,
		CreatedAt:         o.CreatedAt,
		PaymentVerifiedAt: o.PaymentVerifiedAt,
		CancelledAt:       o.CancelledAt,
		CompletedAt:       o.CompletedAt,
		Actions:           actions,
	}
}

const maxOrderNumberAttempts = 3

var errOrderNumberTaken = errors.New("order number taken")

// ORD-YYYYMMDD-XXXXXXXX
func (u *OrderUsecase) orderNumber(now time.Time) string {
	raw := strings.ToUpper(strings.ReplaceAll(u.ids.NewID(), "-", ""))
	if len(raw) > 8 {
		raw = raw[:8]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), raw)
}

// 注文作成。サービスの条件をその時点でスナップショットする
func (u *OrderUsecase) Create(ctx context.Context, actor model.Actor, in CreateOrderInput) (OrderOutput, error) {
	if !actor.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if actor.Role != model.RoleClient {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "only clients can place orders")
	}
	if in.ServiceID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid service_id")
	}
	if in.PackageID != nil && *in.PackageID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid package_id")
	}

	now := u.clock.Now()
	var created model.Order

	// 番号が衝突したらTxごとやり直す（失敗したTxは使えない）
	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		created, err = u.createOnce(ctx, actor, in, now)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		u.log.Warnf(ctx, "order number collision (attempt %d)", attempt)
	}
	if errors.Is(err, errOrderNumberTaken) {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "could not allocate order number")
	}
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Infof(logger.WithOrderID(ctx, created.ID), "order %s created by client %d", created.OrderNumber, actor.UserID)
	dispatch(ctx, u.notifier, u.log, model.OrderNotifications(created, model.NotificationOrderCreated,
		[]model.Party{model.PartyClient, model.PartyFreelancer}, nil))

	return toOrderOutput(created, actor), nil
}

func (u *OrderUsecase) createOnce(ctx context.Context, actor model.Actor, in CreateOrderInput, now time.Time) (model.Order, error) {
	var created model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		svc, err := r.Services().FindByID(ctx, in.ServiceID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "service not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !svc.IsActive {
			return NewHTTPError(http.StatusBadRequest, "service is not available")
		}

		// パッケージ未指定ならサービスの標準条件
		name, price, days := model.DefaultPackageName, svc.Price, svc.DeliveryDays
		if in.PackageID != nil {
			pkg, err := r.Services().FindPackage(ctx, svc.ID, *in.PackageID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "package not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			name, price = pkg.Name, pkg.Price
			if pkg.DeliveryDays > 0 {
				days = pkg.DeliveryDays
			}
		}

		o, err := model.NewOrder(model.NewOrderParams{
			OrderNumber:  u.orderNumber(now),
			ServiceID:    svc.ID,
			ClientID:     actor.UserID,
			FreelancerID: svc.FreelancerID,
			PackageName:  name,
			PackagePrice: price,
			DeliveryDays: days,
			Now:          now,
		})
		if errors.Is(err, model.ErrSelfOrder) {
			return NewHTTPError(http.StatusForbidden, err.Error())
		}
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, err.Error())
		}

		id, err := r.Orders().Create(ctx, o)
		if errors.Is(err, repo.ErrDuplicate) {
			return errOrderNumberTaken
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o.ID = id
		created = o
		return nil
	})
	return created, err
}

func (u *OrderUsecase) Get(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	o, err := u.find(ctx, actor, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, actor), nil
}

func (u *OrderUsecase) find(ctx context.Context, actor model.Actor, orderID int64) (model.Order, error) {
	if !actor.Valid() {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !visible(o, actor) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	return o, nil
}

// 自分が当事者の注文一覧
func (u *OrderUsecase) List(ctx context.Context, actor model.Actor, page int, limit int) (OrderListOutput, error) {
	if !actor.Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.orders.ListByParticipant(ctx, actor.UserID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(items))
	for _, o := range items {
		outs = append(outs, toOrderOutput(o, actor))
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

// 遷移履歴（監査ログ）
func (u *OrderUsecase) History(ctx context.Context, actor model.Actor, orderID int64) ([]model.AuditLog, error) {
	o, err := u.find(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	rt := model.AuditResourceOrder
	logs, err := u.audit.List(ctx, repo.AuditLogFilter{
		ResourceType: &rt,
		ResourceID:   &o.ID,
		Limit:        200,
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

func (u *OrderUsecase) transition(ctx context.Context, actor model.Actor, orderID int64, action model.OrderAction, notes string) (OrderOutput, error) {
	o, err := u.flow.run(ctx, orderID, model.TransitionRequest{
		Action: action,
		Actor:  actor,
		Notes:  strings.TrimSpace(notes),
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, actor), nil
}

// payment_verified → in_progress
func (u *OrderUsecase) StartWork(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, actor, orderID, model.ActionStartWork, "")
}

// in_progress → review
func (u *OrderUsecase) Deliver(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, actor, orderID, model.ActionDeliver, "")
}

// review → in_progress（クライアントの修正依頼）
func (u *OrderUsecase) RequestRevision(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, actor, orderID, model.ActionRequestRevision, "")
}

// review → in_progress（フリーランサー/管理者の差し戻し）
func (u *OrderUsecase) Revert(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, actor, orderID, model.ActionRevert, "")
}

// review → completed。同じTxで入金する
func (u *OrderUsecase) Complete(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.transition(ctx, actor, orderID, model.ActionComplete, "")
}

func (u *OrderUsecase) Cancel(ctx context.Context, actor model.Actor, orderID int64, in TransitionInput) (OrderOutput, error) {
	if len([]rune(in.Notes)) > 1000 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "notes too long")
	}
	return u.transition(ctx, actor, orderID, model.ActionCancel, in.Notes)
}
