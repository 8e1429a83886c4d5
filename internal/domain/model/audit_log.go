package model

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionApprovePayment  AuditAction = "APPROVE_PAYMENT"
	AuditActionRejectPayment   AuditAction = "REJECT_PAYMENT"
	AuditActionOrderTransition AuditAction = "ORDER_TRANSITION"
	AuditActionCancelOrder     AuditAction = "CANCEL_ORDER"
	AuditActionUploadProof     AuditAction = "UPLOAD_PAYMENT_PROOF"
	AuditActionDeleteReview    AuditAction = "DELETE_REVIEW"
	AuditActionRequestPayout   AuditAction = "REQUEST_PAYOUT"
	AuditActionProcessPayout   AuditAction = "PROCESS_PAYOUT"
	AuditActionRejectPayout    AuditAction = "REJECT_PAYOUT"
)

type AuditResourceType string

const (
	AuditResourceOrder  AuditResourceType = "order"
	AuditResourceReview AuditResourceType = "review"
	AuditResourcePayout AuditResourceType = "payout"
)

// 注文遷移ごとの変更記録。遷移と同じTxで書く
// 「誰が」「何を」「どの対象に」「どう変えたか」
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	ActorRole    Role              `gorm:"type:varchar(20);not null" json:"actor_role"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	Before datatypes.JSON `gorm:"type:jsonb" json:"before"`
	After  datatypes.JSON `gorm:"type:jsonb" json:"after"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// 遷移の種類から監査アクションを決める
func AuditActionFor(action OrderAction) AuditAction {
	switch action {
	case ActionApprovePayment:
		return AuditActionApprovePayment
	case ActionRejectPayment:
		return AuditActionRejectPayment
	case ActionCancel:
		return AuditActionCancelOrder
	default:
		return AuditActionOrderTransition
	}
}
