package repository

import (
	"context"

	"gigmarket/internal/domain/model"
)

type ReviewRepository interface {
	// 同じ(order, client)の2件目はErrDuplicate
	Create(ctx context.Context, review model.Review) (model.Review, error)
	FindByOrderAndClient(ctx context.Context, orderID int64, clientID int64) (model.Review, error)
	Delete(ctx context.Context, reviewID int64) error
	SummaryByFreelancer(ctx context.Context, freelancerID int64) (model.FreelancerRatingSummary, error)
}
