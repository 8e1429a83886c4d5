package repository

import (
	"context"

	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders    repo.OrderRepository
	services  repo.ServiceRepository
	messages  repo.MessageRepository
	reviews   repo.ReviewRepository
	ledger    repo.LedgerRepository
	payouts   repo.PayoutRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository       { return r.orders }
func (r *txReposGorm) Services() repo.ServiceRepository   { return r.services }
func (r *txReposGorm) Messages() repo.MessageRepository   { return r.messages }
func (r *txReposGorm) Reviews() repo.ReviewRepository     { return r.reviews }
func (r *txReposGorm) Ledger() repo.LedgerRepository      { return r.ledger }
func (r *txReposGorm) Payouts() repo.PayoutRepository     { return r.payouts }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(newTxRepos(tx))
	})
}

func newTxRepos(db *gorm.DB) *txReposGorm {
	return &txReposGorm{
		orders:    NewOrderGormRepository(db),
		services:  NewServiceGormRepository(db),
		messages:  NewMessageGormRepository(db),
		reviews:   NewReviewGormRepository(db),
		ledger:    NewLedgerGormRepository(db),
		payouts:   NewPayoutGormRepository(db),
		auditLogs: NewAuditLogGormRepository(db),
	}
}
