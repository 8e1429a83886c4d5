package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"
)

// =====================
// in-memory store（Txは直列化して、エラー時は丸ごと戻す）
// =====================

type memData struct {
	orders   map[int64]model.Order
	services map[int64]model.Service
	packages map[int64]model.ServicePackage
	messages []model.Message
	reviews  []model.Review
	wallets  map[int64]model.Wallet
	ledger   []model.LedgerEntry
	payouts  map[int64]model.Payout
	audits   []model.AuditLog
	nextID   int64
}

func (d memData) clone() memData {
	c := d
	c.orders = make(map[int64]model.Order, len(d.orders))
	for k, v := range d.orders {
		c.orders[k] = v
	}
	c.services = make(map[int64]model.Service, len(d.services))
	for k, v := range d.services {
		c.services[k] = v
	}
	c.packages = make(map[int64]model.ServicePackage, len(d.packages))
	for k, v := range d.packages {
		c.packages[k] = v
	}
	c.wallets = make(map[int64]model.Wallet, len(d.wallets))
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	c.payouts = make(map[int64]model.Payout, len(d.payouts))
	for k, v := range d.payouts {
		c.payouts[k] = v
	}
	c.messages = append([]model.Message(nil), d.messages...)
	c.reviews = append([]model.Review(nil), d.reviews...)
	c.ledger = append([]model.LedgerEntry(nil), d.ledger...)
	c.audits = append([]model.AuditLog(nil), d.audits...)
	return c
}

type memStore struct {
	txMu sync.Mutex // FOR UPDATEの代わり
	mu   sync.Mutex
	d    memData

	// テスト用の差し込み
	creditErr error
}

func newMemStore() *memStore {
	return &memStore{d: memData{
		orders:   map[int64]model.Order{},
		services: map[int64]model.Service{},
		packages: map[int64]model.ServicePackage{},
		wallets:  map[int64]model.Wallet{},
		payouts:  map[int64]model.Payout{},
		nextID:   100,
	}}
}

func (s *memStore) id() int64 {
	s.d.nextID++
	return s.d.nextID
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.d.clone()
	s.mu.Unlock()

	if err := fn(s.repos()); err != nil {
		s.mu.Lock()
		s.d = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

type memTxRepos struct{ s *memStore }

func (s *memStore) repos() memTxRepos { return memTxRepos{s: s} }

func (r memTxRepos) Orders() repo.OrderRepository       { return &memOrders{s: r.s} }
func (r memTxRepos) Services() repo.ServiceRepository   { return &memServices{s: r.s} }
func (r memTxRepos) Messages() repo.MessageRepository   { return &memMessages{s: r.s} }
func (r memTxRepos) Reviews() repo.ReviewRepository     { return &memReviews{s: r.s} }
func (r memTxRepos) Ledger() repo.LedgerRepository      { return &memLedger{s: r.s} }
func (r memTxRepos) Payouts() repo.PayoutRepository     { return &memPayouts{s: r.s} }
func (r memTxRepos) AuditLogs() repo.AuditLogRepository { return &memAudit{s: r.s} }

// ---- seed / inspect helpers ----

func (s *memStore) putService(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.services[svc.ID] = svc
}

func (s *memStore) putPackage(p model.ServicePackage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.packages[p.ID] = p
}

func (s *memStore) putOrder(o model.Order) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.id()
	}
	s.d.orders[o.ID] = o
	return o
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.orders[id]
}

func (s *memStore) putWallet(w model.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.wallets[w.UserID] = w
}

func (s *memStore) wallet(userID int64) model.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.wallets[userID]
}

func (s *memStore) creditsFor(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.d.ledger {
		if e.Type == model.LedgerOrderCredit && e.OrderID != nil && *e.OrderID == orderID {
			n++
		}
	}
	return n
}

func (s *memStore) finalDeliveries(orderID int64) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.d.messages {
		if m.OrderID == orderID && m.IsFinalDelivery() {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.audits)
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.d.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrders) ListByParticipant(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.Order
	for _, o := range r.s.d.orders {
		if o.IsParticipant(userID) {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.d.orders {
		if o.OrderNumber == order.OrderNumber {
			return 0, repo.ErrDuplicate
		}
	}
	order.ID = r.s.id()
	r.s.d.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrders) UpdateTransition(ctx context.Context, before model.Order, after model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.orders[before.ID]
	if !ok || cur.Status != before.Status || cur.PaymentStatus != before.PaymentStatus {
		return repo.ErrStaleOrder
	}
	cur.Status = after.Status
	cur.PaymentStatus = after.PaymentStatus
	cur.PaymentNotes = after.PaymentNotes
	cur.ClientConfirmed = after.ClientConfirmed
	cur.PaymentVerifiedAt = after.PaymentVerifiedAt
	cur.CancelledAt = after.CancelledAt
	cur.CompletedAt = after.CompletedAt
	cur.UpdatedAt = after.UpdatedAt
	r.s.d.orders[before.ID] = cur
	return nil
}

func (r *memOrders) SaveProof(ctx context.Context, orderID int64, transactionRef string, screenshot string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.orders[orderID]
	if !ok || cur.Status != model.OrderStatusPending || cur.PaymentStatus == model.PaymentStatusVerified {
		return repo.ErrStaleOrder
	}
	cur.TransactionRef = &transactionRef
	cur.PaymentScreenshot = &screenshot
	cur.UpdatedAt = now
	r.s.d.orders[orderID] = cur
	return nil
}

// ---- services ----

type memServices struct{ s *memStore }

func (r *memServices) FindByID(ctx context.Context, serviceID int64) (model.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.d.services[serviceID]
	if !ok {
		return model.Service{}, repo.ErrNotFound
	}
	return svc, nil
}

func (r *memServices) FindPackage(ctx context.Context, serviceID int64, packageID int64) (model.ServicePackage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.packages[packageID]
	if !ok || p.ServiceID != serviceID {
		return model.ServicePackage{}, repo.ErrNotFound
	}
	return p, nil
}

// ---- messages ----

type memMessages struct{ s *memStore }

func (r *memMessages) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg.IsFinalDelivery() {
		for _, m := range r.s.d.messages {
			if m.OrderID == msg.OrderID && m.IsFinalDelivery() {
				return model.Message{}, repo.ErrDuplicate
			}
		}
	}
	msg.ID = r.s.id()
	r.s.d.messages = append(r.s.d.messages, msg)
	return msg, nil
}

func (r *memMessages) ExistsFinalDelivery(ctx context.Context, orderID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.d.messages {
		if m.OrderID == orderID && m.IsFinalDelivery() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMessages) ListByOrder(ctx context.Context, orderID int64) ([]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Message
	for _, m := range r.s.d.messages {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessages) MarkRead(ctx context.Context, orderID int64, readerID int64, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i, m := range r.s.d.messages {
		if m.OrderID == orderID && m.SenderID != readerID && m.ReadAt == nil {
			t := now
			r.s.d.messages[i].ReadAt = &t
			n++
		}
	}
	return n, nil
}

// ---- reviews ----

type memReviews struct{ s *memStore }

func (r *memReviews) Create(ctx context.Context, review model.Review) (model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.d.reviews {
		if rv.OrderID == review.OrderID && rv.ClientID == review.ClientID {
			return model.Review{}, repo.ErrDuplicate
		}
	}
	review.ID = r.s.id()
	r.s.d.reviews = append(r.s.d.reviews, review)
	return review, nil
}

func (r *memReviews) FindByOrderAndClient(ctx context.Context, orderID int64, clientID int64) (model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.d.reviews {
		if rv.OrderID == orderID && rv.ClientID == clientID {
			return rv, nil
		}
	}
	return model.Review{}, repo.ErrNotFound
}

func (r *memReviews) Delete(ctx context.Context, reviewID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, rv := range r.s.d.reviews {
		if rv.ID == reviewID {
			r.s.d.reviews = append(r.s.d.reviews[:i], r.s.d.reviews[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memReviews) SummaryByFreelancer(ctx context.Context, freelancerID int64) (model.FreelancerRatingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := model.FreelancerRatingSummary{FreelancerID: freelancerID}
	var total int
	for _, rv := range r.s.d.reviews {
		if rv.FreelancerID == freelancerID {
			sum.TotalReviews++
			total += rv.Rating
		}
	}
	if sum.TotalReviews > 0 {
		sum.AverageRating = float64(total) / float64(sum.TotalReviews)
	}
	return sum, nil
}

// ---- ledger ----

type memLedger struct{ s *memStore }

func (r *memLedger) CreditOrder(ctx context.Context, freelancerID int64, amount int64, orderID int64, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.creditErr != nil {
		return r.s.creditErr
	}
	for _, e := range r.s.d.ledger {
		if e.Type == model.LedgerOrderCredit && e.OrderID != nil && *e.OrderID == orderID {
			return repo.ErrDuplicate
		}
	}
	oid := orderID
	r.s.d.ledger = append(r.s.d.ledger, model.LedgerEntry{
		ID: r.s.id(), UserID: freelancerID, OrderID: &oid, Type: model.LedgerOrderCredit, Amount: amount, CreatedAt: now,
	})
	w := r.s.d.wallets[freelancerID]
	w.UserID = freelancerID
	w.Balance += amount
	w.UpdatedAt = now
	r.s.d.wallets[freelancerID] = w
	return nil
}

func (r *memLedger) HoldIfEnough(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w := r.s.d.wallets[userID]
	if w.Balance < amount {
		return false, nil
	}
	w.UserID = userID
	w.Balance -= amount
	w.PendingPayout += amount
	r.s.d.wallets[userID] = w
	pid := payoutID
	r.s.d.ledger = append(r.s.d.ledger, model.LedgerEntry{ID: r.s.id(), UserID: userID, PayoutID: &pid, Type: model.LedgerPayoutHold, Amount: -amount, CreatedAt: now})
	return true, nil
}

func (r *memLedger) ReleaseHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w := r.s.d.wallets[userID]
	if w.PendingPayout < amount {
		return repo.ErrInsufficientBalance
	}
	w.PendingPayout -= amount
	r.s.d.wallets[userID] = w
	pid := payoutID
	r.s.d.ledger = append(r.s.d.ledger, model.LedgerEntry{ID: r.s.id(), UserID: userID, PayoutID: &pid, Type: model.LedgerPayoutRelease, Amount: amount, CreatedAt: now})
	return nil
}

func (r *memLedger) RefundHold(ctx context.Context, userID int64, payoutID int64, amount int64, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w := r.s.d.wallets[userID]
	if w.PendingPayout < amount {
		return repo.ErrInsufficientBalance
	}
	w.PendingPayout -= amount
	w.Balance += amount
	r.s.d.wallets[userID] = w
	pid := payoutID
	r.s.d.ledger = append(r.s.d.ledger, model.LedgerEntry{ID: r.s.id(), UserID: userID, PayoutID: &pid, Type: model.LedgerPayoutRefund, Amount: amount, CreatedAt: now})
	return nil
}

func (r *memLedger) Wallet(ctx context.Context, userID int64) (model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.d.wallets[userID]
	if !ok {
		return model.Wallet{UserID: userID}, nil
	}
	return w, nil
}

func (r *memLedger) Entries(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.LedgerEntry
	for i := len(r.s.d.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.d.ledger[i].UserID == userID {
			out = append(out, r.s.d.ledger[i])
		}
	}
	return out, nil
}

// ---- payouts ----

type memPayouts struct{ s *memStore }

func (r *memPayouts) Create(ctx context.Context, payout model.Payout) (model.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payout.ID = r.s.id()
	r.s.d.payouts[payout.ID] = payout
	return payout, nil
}

func (r *memPayouts) FindByIDForUpdate(ctx context.Context, payoutID int64) (model.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.payouts[payoutID]
	if !ok {
		return model.Payout{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memPayouts) Resolve(ctx context.Context, after model.Payout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.payouts[after.ID]
	if !ok || cur.Status != model.PayoutRequested {
		return repo.ErrStalePayout
	}
	r.s.d.payouts[after.ID] = after
	return nil
}

func (r *memPayouts) ListByFreelancer(ctx context.Context, freelancerID int64, limit int) ([]model.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Payout
	for _, p := range r.s.d.payouts {
		if p.FreelancerID == freelancerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- audit ----

type memAudit struct{ s *memStore }

func (r *memAudit) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = r.s.id()
	r.s.d.audits = append(r.s.d.audits, log)
	return nil
}

func (r *memAudit) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.AuditLog
	for _, l := range r.s.d.audits {
		if filter.ResourceType != nil && l.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.ResourceID != nil && l.ResourceID != *filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

var (
	_ repo.TransactionManager = (*memStore)(nil)
	_ repo.OrderRepository    = (*memOrders)(nil)
	_ repo.LedgerRepository   = (*memLedger)(nil)
)
