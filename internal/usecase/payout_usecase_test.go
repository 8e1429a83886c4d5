package usecase_test

import (
	"context"
	"testing"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayout_RequestAndProcess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.putWallet(model.Wallet{UserID: freelancerB.UserID, Balance: 1000})

	p, err := h.payouts.RequestPayout(ctx, freelancerB, usecase.RequestPayoutInput{Amount: 400})
	require.NoError(t, err)
	assert.Equal(t, model.PayoutRequested, p.Status)
	assert.Equal(t, 1, h.store.auditCount())

	w := h.store.wallet(freelancerB.UserID)
	assert.Equal(t, int64(600), w.Balance)
	assert.Equal(t, int64(400), w.PendingPayout)

	_, err = h.payouts.RequestPayout(ctx, freelancerB, usecase.RequestPayoutInput{Amount: 700})
	requireKind(t, err, usecase.KindValidation, "insufficient balance")
	// 失敗した申請は監査も残らない
	assert.Equal(t, 1, h.store.auditCount())

	out, err := h.payouts.Wallet(ctx, freelancerB)
	require.NoError(t, err)
	assert.Len(t, out.Payouts, 1)
	assert.Len(t, out.Entries, 1)

	done, err := h.payouts.ProcessPayout(ctx, adminZ, p.ID, usecase.ResolvePayoutInput{Notes: "sent"})
	require.NoError(t, err)
	assert.Equal(t, model.PayoutProcessed, done.Status)
	require.NotNil(t, done.ProcessedBy)
	assert.Equal(t, adminZ.UserID, *done.ProcessedBy)
	assert.Equal(t, 2, h.store.auditCount())

	w = h.store.wallet(freelancerB.UserID)
	assert.Equal(t, int64(600), w.Balance)
	assert.Equal(t, int64(0), w.PendingPayout)

	notes := h.notes.to(freelancerB.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationPayoutProcessed, notes[0].Kind)
	assert.Equal(t, "400", notes[0].Extra["amount"])

	_, err = h.payouts.ProcessPayout(ctx, adminZ, p.ID, usecase.ResolvePayoutInput{})
	requireKind(t, err, usecase.KindInvalidTransition, "payout already processed")
}

func TestPayout_RejectRefunds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.putWallet(model.Wallet{UserID: freelancerB.UserID, Balance: 500})

	p, err := h.payouts.RequestPayout(ctx, freelancerB, usecase.RequestPayoutInput{Amount: 500})
	require.NoError(t, err)

	out, err := h.payouts.RejectPayout(ctx, adminZ, p.ID, usecase.ResolvePayoutInput{Notes: "bank details missing"})
	require.NoError(t, err)
	assert.Equal(t, model.PayoutRejected, out.Status)
	assert.Equal(t, "bank details missing", out.Notes)

	w := h.store.wallet(freelancerB.UserID)
	assert.Equal(t, int64(500), w.Balance)
	assert.Equal(t, int64(0), w.PendingPayout)
	assert.Empty(t, h.notes.kinds())
}

// 完了入金→出金まで
func TestPayout_FromCompletedOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusReview, model.PaymentStatusVerified, true)

	_, err := h.orders.Complete(ctx, clientA, o.ID)
	require.NoError(t, err)

	_, err = h.payouts.RequestPayout(ctx, freelancerB, usecase.RequestPayoutInput{Amount: o.TotalAmount})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.store.wallet(freelancerB.UserID).Balance)
}

func TestPayout_Roles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.payouts.Wallet(ctx, clientA)
	requireKind(t, err, usecase.KindForbidden, "freelancer only")

	_, err = h.payouts.RequestPayout(ctx, freelancerB, usecase.RequestPayoutInput{Amount: 0})
	requireKind(t, err, usecase.KindValidation, "amount")

	_, err = h.payouts.ProcessPayout(ctx, freelancerB, 1, usecase.ResolvePayoutInput{})
	requireKind(t, err, usecase.KindForbidden, "admin only")

	_, err = h.payouts.RejectPayout(ctx, adminZ, 4242, usecase.ResolvePayoutInput{})
	requireKind(t, err, usecase.KindNotFound, "payout not found")

	out, err := h.payouts.Wallet(ctx, otherFree)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Wallet.Balance)
}
