package repository

import (
	"context"

	"gigmarket/internal/domain/model"
)

type PayoutRepository interface {
	Create(ctx context.Context, payout model.Payout) (model.Payout, error)
	FindByIDForUpdate(ctx context.Context, payoutID int64) (model.Payout, error)
	// requestedのときだけ更新。それ以外はErrStalePayout
	Resolve(ctx context.Context, after model.Payout) error
	ListByFreelancer(ctx context.Context, freelancerID int64, limit int) ([]model.Payout, error)
}
