package repository

import (
	"context"

	"gigmarket/internal/domain/model"
	repo "gigmarket/internal/repository"

	"gorm.io/gorm"
)

type serviceGormRepository struct {
	db *gorm.DB
}

func NewServiceGormRepository(db *gorm.DB) repo.ServiceRepository {
	return &serviceGormRepository{db: db}
}

func (r *serviceGormRepository) FindByID(ctx context.Context, serviceID int64) (model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).Where("id = ?", serviceID).First(&s).Error; err != nil {
		return model.Service{}, mapReadError(err)
	}
	return s, nil
}

func (r *serviceGormRepository) FindPackage(ctx context.Context, serviceID int64, packageID int64) (model.ServicePackage, error) {
	var p model.ServicePackage
	err := r.db.WithContext(ctx).
		Where("id = ? AND service_id = ?", packageID, serviceID).
		First(&p).Error
	if err != nil {
		return model.ServicePackage{}, mapReadError(err)
	}
	return p, nil
}
