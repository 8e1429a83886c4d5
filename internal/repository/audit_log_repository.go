package repository

import (
	"context"

	"gigmarket/internal/domain/model"
)

// 履歴表示用。対象（種類+ID）で引く
type AuditLogFilter struct {
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	Limit        int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
