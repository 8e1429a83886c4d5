package repository

import (
	"context"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
)

type reviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) repo.ReviewRepository {
	return &reviewGormRepository{db: db}
}

func (r *reviewGormRepository) Create(ctx context.Context, review model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&review).Error; err != nil {
		return model.Review{}, mapWriteError(err)
	}
	return review, nil
}

func (r *reviewGormRepository) FindByOrderAndClient(ctx context.Context, orderID int64, clientID int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND client_id = ?", orderID, clientID).
		First(&rv).Error
	if err != nil {
		return model.Review{}, mapReadError(err)
	}
	return rv, nil
}

func (r *reviewGormRepository) Delete(ctx context.Context, reviewID int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", reviewID).Delete(&model.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *reviewGormRepository) SummaryByFreelancer(ctx context.Context, freelancerID int64) (model.FreelancerRatingSummary, error) {
	var row struct {
		Avg   float64
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
		Where("freelancer_id = ?", freelancerID).
		Scan(&row).Error
	if err != nil {
		return model.FreelancerRatingSummary{}, err
	}
	return model.FreelancerRatingSummary{
		FreelancerID:  freelancerID,
		AverageRating: row.Avg,
		TotalReviews:  row.Total,
	}, nil
}
