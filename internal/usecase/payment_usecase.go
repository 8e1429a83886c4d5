package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"
)

const (
	maxBulkOrders      = 100
	maxTransactionRef  = 255
	maxPaymentNotes    = 1000
	maxScreenshotBytes = 10 << 20
)

type PaymentUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	files    FileStore
	notifier Notifier
	clock    Clock
	log      logger.Logger
	flow     *transitioner
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	files FileStore,
	notifier Notifier,
	clock Clock,
	log logger.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		orders:   orders,
		files:    files,
		notifier: notifier,
		clock:    clock,
		log:      log,
		flow:     &transitioner{tx: tx, notifier: notifier, clock: clock, log: log},
	}
}

type UploadProofInput struct {
	TransactionRef string
	Filename       string
	Screenshot     []byte
}

type ApprovePaymentInput struct {
	Notes string
	// trueならpayment_verifiedで止め、作業開始は別操作にする
	HoldBeforeWork bool
}

type RejectPaymentInput struct {
	Notes string
}

type BulkPaymentInput struct {
	OrderIDs []int64
	Notes    string
}

type BulkFailure struct {
	OrderID int64     `json:"order_id"`
	Kind    ErrorKind `json:"kind"`
	Error   string    `json:"error"`
}

type BulkResult struct {
	Succeeded    []int64       `json:"succeeded"`
	Failed       []BulkFailure `json:"failed"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
}

// 支払い証明のアップロード（ステータスは変えない）
func (u *PaymentUsecase) UploadProof(ctx context.Context, actor model.Actor, orderID int64, in UploadProofInput) (OrderOutput, error) {
	if !actor.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ref := strings.TrimSpace(in.TransactionRef)
	if ref == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "transaction_ref is required")
	}
	if len(ref) > maxTransactionRef {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "transaction_ref too long")
	}
	if len(in.Screenshot) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment screenshot is required")
	}
	if len(in.Screenshot) > maxScreenshotBytes {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment screenshot too large")
	}

	ctx = logger.WithOrderID(ctx, orderID)

	// 判定が通ってから保存（ガード失敗でファイルを残さない）
	pre, err := findOrder(ctx, u.orders, orderID, actor)
	if err != nil {
		return OrderOutput{}, err
	}
	if terr := pre.CheckProofUpload(actor); terr != nil {
		return OrderOutput{}, fromTransitionError(terr)
	}

	// アップロードは注文行ロックの外で行う
	path, err := u.files.Store(ctx, CategoryPaymentScreenshots, in.Filename, in.Screenshot)
	if err != nil {
		u.log.Errorf(ctx, "store payment screenshot failed: %v", err)
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "file store error")
	}

	now := u.clock.Now()
	var saved model.Order

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := lockOrder(ctx, r, orderID, actor)
		if err != nil {
			return err
		}
		// アップロード中に承認・キャンセルされていないか
		if terr := o.CheckProofUpload(actor); terr != nil {
			return fromTransitionError(terr)
		}

		if err := r.Orders().SaveProof(ctx, o.ID, ref, path, now); err != nil {
			if errors.Is(err, repo.ErrStaleOrder) {
				return errInvalidTransition("order was modified concurrently")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorRole:    actor.Role,
			Action:       model.AuditActionUploadProof,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			Before:       toJSON(map[string]any{"transaction_ref": o.TransactionRef}),
			After:        toJSON(map[string]any{"transaction_ref": ref}),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.TransactionRef = &ref
		o.PaymentScreenshot = &path
		o.UpdatedAt = now
		saved = o
		return nil
	})
	if err != nil {
		removeUpload(ctx, u.files, u.log, path)
		return OrderOutput{}, err
	}

	dispatch(ctx, u.notifier, u.log, model.OrderNotifications(saved, model.NotificationStatusUpdated,
		[]model.Party{model.PartyFreelancer}, map[string]string{"event": "payment_proof_uploaded"}))

	return toOrderOutput(saved, actor), nil
}

// Txが失敗したら保存済みのファイルを消す。消せなくてもエラーは返さない
func removeUpload(ctx context.Context, files FileStore, log logger.Logger, ref string) {
	if err := files.Remove(context.WithoutCancel(ctx), ref); err != nil {
		log.Warnf(ctx, "remove orphaned upload %s failed: %v", ref, err)
	}
}

func validateNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if len([]rune(notes)) > maxPaymentNotes {
		return "", NewHTTPError(http.StatusBadRequest, "notes too long")
	}
	return notes, nil
}

func (u *PaymentUsecase) Approve(ctx context.Context, actor model.Actor, orderID int64, in ApprovePaymentInput) (OrderOutput, error) {
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return OrderOutput{}, err
	}
	o, err := u.flow.run(ctx, orderID, model.TransitionRequest{
		Action:         model.ActionApprovePayment,
		Actor:          actor,
		Notes:          notes,
		HoldBeforeWork: in.HoldBeforeWork,
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, actor), nil
}

func (u *PaymentUsecase) Reject(ctx context.Context, actor model.Actor, orderID int64, in RejectPaymentInput) (OrderOutput, error) {
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return OrderOutput{}, err
	}
	o, err := u.flow.run(ctx, orderID, model.TransitionRequest{
		Action: model.ActionRejectPayment,
		Actor:  actor,
		Notes:  notes,
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, actor), nil
}

func (u *PaymentUsecase) BulkApprove(ctx context.Context, actor model.Actor, in BulkPaymentInput) (BulkResult, error) {
	return u.bulk(ctx, actor, in, model.ActionApprovePayment)
}

func (u *PaymentUsecase) BulkReject(ctx context.Context, actor model.Actor, in BulkPaymentInput) (BulkResult, error) {
	return u.bulk(ctx, actor, in, model.ActionRejectPayment)
}

// 注文ごとに別Tx。1件の失敗でバッチ全体は止めない
func (u *PaymentUsecase) bulk(ctx context.Context, actor model.Actor, in BulkPaymentInput, action model.OrderAction) (BulkResult, error) {
	if !actor.Valid() {
		return BulkResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return BulkResult{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	ids, err := normalizeIDs(in.OrderIDs)
	if err != nil {
		return BulkResult{}, err
	}
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return BulkResult{}, err
	}

	res := BulkResult{Succeeded: []int64{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		_, err := u.flow.run(ctx, id, model.TransitionRequest{
			Action: action,
			Actor:  actor,
			Notes:  notes,
		})
		if err != nil {
			f := BulkFailure{OrderID: id, Kind: KindInternal, Error: err.Error()}
			if he, ok := AsHTTPError(err); ok {
				f.Kind, f.Error = he.Kind, he.Message
			}
			res.Failed = append(res.Failed, f)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	res.SuccessCount = len(res.Succeeded)
	res.FailureCount = len(res.Failed)

	u.log.Infof(ctx, "bulk %s by admin %d: %d ok, %d failed", action, actor.UserID, res.SuccessCount, res.FailureCount)
	return res, nil
}

// 重複を除いて昇順にする（ロック順を揃える）
func normalizeIDs(raw []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, id := range raw {
		if id <= 0 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid order id")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "order_ids is required")
	}
	if len(ids) > maxBulkOrders {
		return nil, NewHTTPError(http.StatusBadRequest, "too many order_ids")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
