package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"
)

type PayoutUsecase struct {
	tx       repo.TransactionManager
	ledger   repo.LedgerRepository
	payouts  repo.PayoutRepository
	notifier Notifier
	clock    Clock
	log      logger.Logger
}

func NewPayoutUsecase(
	tx repo.TransactionManager,
	ledger repo.LedgerRepository,
	payouts repo.PayoutRepository,
	notifier Notifier,
	clock Clock,
	log logger.Logger,
) *PayoutUsecase {
	return &PayoutUsecase{tx: tx, ledger: ledger, payouts: payouts, notifier: notifier, clock: clock, log: log}
}

type WalletOutput struct {
	Wallet  model.Wallet        `json:"wallet"`
	Entries []model.LedgerEntry `json:"entries"`
	Payouts []model.Payout      `json:"payouts"`
}

type RequestPayoutInput struct {
	Amount int64
}

type ResolvePayoutInput struct {
	Notes string
}

func requireFreelancer(actor model.Actor) error {
	if !actor.Valid() {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if actor.Role != model.RoleFreelancer {
		return NewHTTPError(http.StatusForbidden, "freelancer only")
	}
	return nil
}

func (u *PayoutUsecase) Wallet(ctx context.Context, actor model.Actor) (WalletOutput, error) {
	if err := requireFreelancer(actor); err != nil {
		return WalletOutput{}, err
	}
	w, err := u.ledger.Wallet(ctx, actor.UserID)
	if err != nil {
		return WalletOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	entries, err := u.ledger.Entries(ctx, actor.UserID, 50)
	if err != nil {
		return WalletOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	payouts, err := u.payouts.ListByFreelancer(ctx, actor.UserID, 20)
	if err != nil {
		return WalletOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return WalletOutput{Wallet: w, Entries: entries, Payouts: payouts}, nil
}

// 残高からpending_payoutへ移して申請を作る
func (u *PayoutUsecase) RequestPayout(ctx context.Context, actor model.Actor, in RequestPayoutInput) (model.Payout, error) {
	if err := requireFreelancer(actor); err != nil {
		return model.Payout{}, err
	}
	if in.Amount <= 0 {
		return model.Payout{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	now := u.clock.Now()
	var created model.Payout
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payouts().Create(ctx, model.Payout{
			FreelancerID: actor.UserID,
			Amount:       in.Amount,
			Status:       model.PayoutRequested,
			CreatedAt:    now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		ok, err := r.Ledger().HoldIfEnough(ctx, actor.UserID, p.ID, in.Amount, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "ledger error")
		}
		if !ok {
			// 申請行ごとrollback
			return NewHTTPError(http.StatusBadRequest, "insufficient balance")
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorRole:    actor.Role,
			Action:       model.AuditActionRequestPayout,
			ResourceType: model.AuditResourcePayout,
			ResourceID:   p.ID,
			Before:       toJSON(nil),
			After:        toJSON(map[string]any{"status": p.Status, "amount": p.Amount}),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created = p
		return nil
	})
	if err != nil {
		return model.Payout{}, err
	}

	u.log.Infof(ctx, "payout %d requested by freelancer %d amount=%d", created.ID, actor.UserID, created.Amount)
	return created, nil
}

func (u *PayoutUsecase) ProcessPayout(ctx context.Context, actor model.Actor, payoutID int64, in ResolvePayoutInput) (model.Payout, error) {
	p, err := u.resolve(ctx, actor, payoutID, in, model.PayoutProcessed)
	if err != nil {
		return model.Payout{}, err
	}
	dispatch(ctx, u.notifier, u.log, []model.Notification{{
		Kind:      model.NotificationPayoutProcessed,
		Recipient: model.Recipient{UserID: p.FreelancerID, Party: model.PartyFreelancer},
		Extra: map[string]string{
			"payout_id": strconv.FormatInt(p.ID, 10),
			"amount":    strconv.FormatInt(p.Amount, 10),
		},
	}})
	return p, nil
}

func (u *PayoutUsecase) RejectPayout(ctx context.Context, actor model.Actor, payoutID int64, in ResolvePayoutInput) (model.Payout, error) {
	return u.resolve(ctx, actor, payoutID, in, model.PayoutRejected)
}

// requested → processed / rejected
func (u *PayoutUsecase) resolve(ctx context.Context, actor model.Actor, payoutID int64, in ResolvePayoutInput, to model.PayoutStatus) (model.Payout, error) {
	if !actor.Valid() {
		return model.Payout{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !actor.IsAdmin() {
		return model.Payout{}, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if payoutID <= 0 {
		return model.Payout{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return model.Payout{}, err
	}

	now := u.clock.Now()
	var after model.Payout
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Payouts().FindByIDForUpdate(ctx, payoutID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "payout not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if before.Status != model.PayoutRequested {
			return errInvalidTransition("payout already " + string(before.Status))
		}

		after = before
		after.Status = to
		after.Notes = notes
		after.ProcessedBy = &actor.UserID
		after.ProcessedAt = &now

		if err := r.Payouts().Resolve(ctx, after); err != nil {
			if errors.Is(err, repo.ErrStalePayout) {
				return errInvalidTransition("payout was modified concurrently")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		switch to {
		case model.PayoutProcessed:
			err = r.Ledger().ReleaseHold(ctx, before.FreelancerID, before.ID, before.Amount, now)
		case model.PayoutRejected:
			err = r.Ledger().RefundHold(ctx, before.FreelancerID, before.ID, before.Amount, now)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "ledger error")
		}

		action := model.AuditActionProcessPayout
		if to == model.PayoutRejected {
			action = model.AuditActionRejectPayout
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorRole:    actor.Role,
			Action:       action,
			ResourceType: model.AuditResourcePayout,
			ResourceID:   before.ID,
			Before:       toJSON(map[string]any{"status": before.Status}),
			After:        toJSON(map[string]any{"status": after.Status, "notes": notes}),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return model.Payout{}, err
	}

	u.log.Infof(ctx, "payout %d %s by admin %d", after.ID, after.Status, actor.UserID)
	return after, nil
}
