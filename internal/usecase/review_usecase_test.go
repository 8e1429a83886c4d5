package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusReview, model.PaymentStatusVerified, true)

	rv, err := h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: 5, Comment: "  great work "})
	require.NoError(t, err)
	assert.Equal(t, 5, rv.Rating)
	assert.Equal(t, "great work", rv.Comment)
	assert.Equal(t, freelancerB.UserID, rv.FreelancerID)

	notes := h.notes.to(freelancerB.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationReviewReceived, notes[0].Kind)
	assert.Equal(t, "5", notes[0].Extra["rating"])

	_, err = h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: 4})
	requireKind(t, err, usecase.KindConflict, "review already exists")
}

func TestReview_Create_Gate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  model.OrderStatus
		payment model.PaymentStatus
		actor   model.Actor
		in      usecase.CreateReviewInput
		kind    usecase.ErrorKind
		msg     string
	}{
		{"rating too low", model.OrderStatusReview, model.PaymentStatusVerified, clientA,
			usecase.CreateReviewInput{Rating: 0}, usecase.KindValidation, "rating must be between 1 and 5"},
		{"rating too high", model.OrderStatusReview, model.PaymentStatusVerified, clientA,
			usecase.CreateReviewInput{Rating: 6}, usecase.KindValidation, "rating"},
		{"comment too long", model.OrderStatusReview, model.PaymentStatusVerified, clientA,
			usecase.CreateReviewInput{Rating: 3, Comment: strings.Repeat("あ", model.MaxCommentLength+1)}, usecase.KindValidation, ""},
		{"freelancer reviews", model.OrderStatusReview, model.PaymentStatusVerified, freelancerB,
			usecase.CreateReviewInput{Rating: 3}, usecase.KindForbidden, "only the order's client"},
		{"unverified payment", model.OrderStatusPending, model.PaymentStatusPending, clientA,
			usecase.CreateReviewInput{Rating: 3}, usecase.KindInvalidTransition, "payment not yet verified"},
		{"cancelled order", model.OrderStatusCancelled, model.PaymentStatusVerified, clientA,
			usecase.CreateReviewInput{Rating: 3}, usecase.KindInvalidTransition, "order already cancelled"},
		{"stranger", model.OrderStatusReview, model.PaymentStatusVerified, otherClient,
			usecase.CreateReviewInput{Rating: 3}, usecase.KindNotFound, "order not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			o := h.seed(tt.status, tt.payment, true)

			_, err := h.reviews.Create(ctx, tt.actor, o.ID, tt.in)
			requireKind(t, err, tt.kind, tt.msg)
			assert.Empty(t, h.notes.kinds())
		})
	}
}

// 完了前（in_progress）でも支払い確認済みならレビューできる
func TestReview_AllowedBeforeCompletion(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusInProgress, model.PaymentStatusVerified, true)

	_, err := h.reviews.Create(context.Background(), clientA, o.ID, usecase.CreateReviewInput{Rating: 4})
	require.NoError(t, err)
}

func TestReview_ConcurrentCreate_OneWins(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusCompleted, model.PaymentStatusVerified, true)

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.reviews.Create(context.Background(), clientA, o.ID, usecase.CreateReviewInput{Rating: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, usecase.KindConflict, "review already exists")
	}
	assert.Equal(t, 1, ok)
}

func TestReview_State(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusReview, model.PaymentStatusVerified, true)

	st, err := h.reviews.State(ctx, clientA, o.ID)
	require.NoError(t, err)
	assert.True(t, st.CanReview)
	assert.True(t, st.WaitingForReview)
	assert.Nil(t, st.Review)

	st, err = h.reviews.State(ctx, freelancerB, o.ID)
	require.NoError(t, err)
	assert.False(t, st.CanReview)
	assert.True(t, st.WaitingForReview)

	_, err = h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: 2})
	require.NoError(t, err)

	st, err = h.reviews.State(ctx, clientA, o.ID)
	require.NoError(t, err)
	assert.False(t, st.CanReview)
	assert.False(t, st.WaitingForReview)
	require.NotNil(t, st.Review)
	assert.Equal(t, 2, st.Review.Rating)

	pending := h.seed(model.OrderStatusPending, model.PaymentStatusPending, false)
	st, err = h.reviews.State(ctx, clientA, pending.ID)
	require.NoError(t, err)
	assert.False(t, st.CanReview)
	assert.False(t, st.WaitingForReview)
}

func TestReview_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusCompleted, model.PaymentStatusVerified, true)

	_, err := h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: 1})
	require.NoError(t, err)

	err = h.reviews.Delete(ctx, freelancerB, o.ID)
	requireKind(t, err, usecase.KindForbidden, "review author")

	err = h.reviews.Delete(ctx, otherClient, o.ID)
	requireKind(t, err, usecase.KindNotFound, "order not found")

	audits := h.store.auditCount()
	require.NoError(t, h.reviews.Delete(ctx, adminZ, o.ID))
	assert.Equal(t, audits+1, h.store.auditCount())

	err = h.reviews.Delete(ctx, clientA, o.ID)
	requireKind(t, err, usecase.KindNotFound, "review not found")

	// 削除後は書き直せる
	_, err = h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: 4})
	require.NoError(t, err)
}

func TestReview_FreelancerSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, rating := range []int{5, 4} {
		o := h.seed(model.OrderStatusCompleted, model.PaymentStatusVerified, true)
		_, err := h.reviews.Create(ctx, clientA, o.ID, usecase.CreateReviewInput{Rating: rating})
		require.NoError(t, err)
	}

	s, err := h.reviews.FreelancerSummary(ctx, freelancerB.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalReviews)
	assert.InDelta(t, 4.5, s.AverageRating, 0.0001)

	empty, err := h.reviews.FreelancerSummary(ctx, otherFree.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalReviews)
	assert.Equal(t, 0.0, empty.AverageRating)

	_, err = h.reviews.FreelancerSummary(ctx, 0)
	requireKind(t, err, usecase.KindValidation, "invalid id")
}
