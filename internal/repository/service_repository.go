package repository

import (
	"context"

	"gigmarket/internal/domain/model"
)

type ServiceRepository interface {
	FindByID(ctx context.Context, serviceID int64) (model.Service, error)
	// サービスに属するパッケージだけ返す
	FindPackage(ctx context.Context, serviceID int64, packageID int64) (model.ServicePackage, error)
}
