package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	"gigmarket/internal/usecase"

	"github.com/stretchr/testify/require"
)

var (
	clientA     = model.Actor{UserID: 1, Role: model.RoleClient}
	freelancerB = model.Actor{UserID: 2, Role: model.RoleFreelancer}
	otherClient = model.Actor{UserID: 3, Role: model.RoleClient}
	otherFree   = model.Actor{UserID: 4, Role: model.RoleFreelancer}
	adminZ      = model.Actor{UserID: 9, Role: model.RoleAdmin}

	testNow = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%08x-0000-4000-8000-000000000000", g.n)
}

// 送られた通知をためるだけ
type captureNotifier struct {
	mu    sync.Mutex
	got   []model.Notification
	err   error
	panic bool

	ctxErrs []error
}

func (n *captureNotifier) Notify(ctx context.Context, note model.Notification) error {
	if n.panic {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	if n.err != nil {
		return n.err
	}
	n.got = append(n.got, note)
	return nil
}

func (n *captureNotifier) kinds() []model.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.NotificationKind, 0, len(n.got))
	for _, g := range n.got {
		out = append(out, g.Kind)
	}
	return out
}

func (n *captureNotifier) to(userID int64) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, g := range n.got {
		if g.Recipient.UserID == userID {
			out = append(out, g)
		}
	}
	return out
}

func (n *captureNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = nil
	n.ctxErrs = nil
}

type memFiles struct {
	mu      sync.Mutex
	stored  map[string][]byte
	seq     int
	removed []string
	err     error

	// 保存中に割り込ませる処理（テスト用）
	onStore func()
}

func (f *memFiles) Store(ctx context.Context, category string, filename string, data []byte) (string, error) {
	if f.onStore != nil {
		f.onStore()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.seq++
	path := fmt.Sprintf("%s/%d-%s", category, f.seq, filename)
	f.stored[path] = data
	return path, nil
}

func (f *memFiles) Remove(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, ref)
	f.removed = append(f.removed, ref)
	return nil
}

func (f *memFiles) removedRefs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *memFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type harness struct {
	store *memStore
	notes *captureNotifier
	files *memFiles

	orders   *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
	reviews  *usecase.ReviewUsecase
	messages *usecase.MessageUsecase
	payouts  *usecase.PayoutUsecase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := newMemStore()
	notes := &captureNotifier{}
	files := &memFiles{}
	clock := fixedClock{t: testNow}
	log := logger.NewNop()

	s.putService(model.Service{ID: 10, FreelancerID: freelancerB.UserID, Title: "Logo design", Price: 5000, DeliveryDays: 3, IsActive: true})
	s.putPackage(model.ServicePackage{ID: 20, ServiceID: 10, Name: "premium", Price: 12000, DeliveryDays: 7})

	return &harness{
		store:    s,
		notes:    notes,
		files:    files,
		orders:   usecase.NewOrderUsecase(s, &memOrders{s: s}, &memAudit{s: s}, notes, clock, &seqIDs{}, log),
		payments: usecase.NewPaymentUsecase(s, &memOrders{s: s}, files, notes, clock, log),
		reviews:  usecase.NewReviewUsecase(s, &memOrders{s: s}, &memReviews{s: s}, notes, clock, log),
		messages: usecase.NewMessageUsecase(s, &memOrders{s: s}, &memMessages{s: s}, files, notes, clock, log),
		payouts:  usecase.NewPayoutUsecase(s, &memLedger{s: s}, &memPayouts{s: s}, notes, clock, log),
	}
}

// 任意の状態の注文を直接置く
func (h *harness) seed(status model.OrderStatus, payment model.PaymentStatus, withProof bool) model.Order {
	o := model.Order{
		OrderNumber:   fmt.Sprintf("ORD-SEED-%d", len(h.store.d.orders)+1),
		ServiceID:     10,
		ClientID:      clientA.UserID,
		FreelancerID:  freelancerB.UserID,
		PackageName:   model.DefaultPackageName,
		PackagePrice:  5000,
		TotalAmount:   5000,
		DueDate:       testNow.AddDate(0, 0, 3),
		Status:        status,
		PaymentStatus: payment,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	if withProof {
		ref := "TX-1"
		shot := "payment_screenshots/seed.png"
		o.TransactionRef = &ref
		o.PaymentScreenshot = &shot
	}
	if payment == model.PaymentStatusVerified {
		at := testNow
		o.PaymentVerifiedAt = &at
	}
	return h.store.putOrder(o)
}

// HTTPErrorの種類とメッセージをまとめて確認する
func requireKind(t *testing.T, err error, kind usecase.ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected *HTTPError, got %T: %v", err, err)
	require.Equal(t, kind, he.Kind, "message=%q", he.Message)
	if msg != "" {
		require.Contains(t, he.Message, msg)
	}
}

var errBoom = errors.New("boom")
