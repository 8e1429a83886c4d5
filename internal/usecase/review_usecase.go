package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"
)

type ReviewUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	reviews  repo.ReviewRepository
	notifier Notifier
	clock    Clock
	log      logger.Logger
}

func NewReviewUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	reviews repo.ReviewRepository,
	notifier Notifier,
	clock Clock,
	log logger.Logger,
) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, orders: orders, reviews: reviews, notifier: notifier, clock: clock, log: log}
}

type CreateReviewInput struct {
	Rating  int
	Comment string
}

// レビュー可否（毎回計算する。保存しない）
type ReviewState struct {
	OrderID          int64         `json:"order_id"`
	CanReview        bool          `json:"can_review"`
	WaitingForReview bool          `json:"waiting_for_review"`
	Review           *model.Review `json:"review"`
}

func (u *ReviewUsecase) Create(ctx context.Context, actor model.Actor, orderID int64, in CreateReviewInput) (model.Review, error) {
	if !actor.Valid() {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	comment := strings.TrimSpace(in.Comment)
	if err := model.ValidateReviewInput(in.Rating, comment); err != nil {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx = logger.WithOrderID(ctx, orderID)
	now := u.clock.Now()
	var created model.Review
	var order model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文行ロックで同じ注文への同時作成を直列化する
		o, err := lockOrder(ctx, r, orderID, actor)
		if err != nil {
			return err
		}
		if actor.Role != model.RoleClient || actor.UserID != o.ClientID {
			return NewHTTPError(http.StatusForbidden, "only the order's client can review")
		}

		_, err = r.Reviews().FindByOrderAndClient(ctx, o.ID, actor.UserID)
		if err == nil {
			return errConflict("review already exists for this order")
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status == model.OrderStatusCancelled {
			return errInvalidTransition("order already cancelled")
		}
		if o.PaymentStatus != model.PaymentStatusVerified {
			return errInvalidTransition("payment not yet verified")
		}

		rv, err := r.Reviews().Create(ctx, model.Review{
			OrderID:      o.ID,
			ClientID:     actor.UserID,
			FreelancerID: o.FreelancerID,
			Rating:       in.Rating,
			Comment:      comment,
			CreatedAt:    now,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return errConflict("review already exists for this order")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created, order = rv, o
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}

	dispatch(ctx, u.notifier, u.log, model.OrderNotifications(order, model.NotificationReviewReceived,
		[]model.Party{model.PartyFreelancer}, map[string]string{"rating": strconv.Itoa(created.Rating)}))
	return created, nil
}

// 作成したクライアントか管理者だけ。無ければNotFound
func (u *ReviewUsecase) Delete(ctx context.Context, actor model.Actor, orderID int64) error {
	if !actor.Valid() {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := lockOrder(ctx, r, orderID, actor)
		if err != nil {
			return err
		}
		switch actor.Role {
		case model.RoleAdmin:
		case model.RoleClient:
			if actor.UserID != o.ClientID {
				return NewHTTPError(http.StatusForbidden, "only the review author can delete it")
			}
		case model.RoleFreelancer:
			return NewHTTPError(http.StatusForbidden, "only the review author can delete it")
		}

		rv, err := r.Reviews().FindByOrderAndClient(ctx, o.ID, o.ClientID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "review not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Reviews().Delete(ctx, rv.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "review not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorRole:    actor.Role,
			Action:       model.AuditActionDeleteReview,
			ResourceType: model.AuditResourceReview,
			ResourceID:   rv.ID,
			Before:       toJSON(rv),
			After:        toJSON(nil),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func (u *ReviewUsecase) State(ctx context.Context, actor model.Actor, orderID int64) (ReviewState, error) {
	if !actor.Valid() {
		return ReviewState{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return ReviewState{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReviewState{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return ReviewState{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !visible(o, actor) {
		return ReviewState{}, NewHTTPError(http.StatusNotFound, "order not found")
	}

	st := ReviewState{OrderID: o.ID}
	rv, err := u.reviews.FindByOrderAndClient(ctx, o.ID, o.ClientID)
	switch {
	case err == nil:
		st.Review = &rv
	case errors.Is(err, repo.ErrNotFound):
	default:
		return ReviewState{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	hasReview := st.Review != nil
	// クライアント本人にだけ「書ける」を返す
	if actor.Role == model.RoleClient && actor.UserID == o.ClientID {
		st.CanReview = o.CanReview(hasReview)
	}
	st.WaitingForReview = o.WaitingForReview(hasReview)
	return st, nil
}

func (u *ReviewUsecase) FreelancerSummary(ctx context.Context, freelancerID int64) (model.FreelancerRatingSummary, error) {
	if freelancerID <= 0 {
		return model.FreelancerRatingSummary{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := u.reviews.SummaryByFreelancer(ctx, freelancerID)
	if err != nil {
		return model.FreelancerRatingSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}
