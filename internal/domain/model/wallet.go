package model

import "time"

// フリーランサーの残高。pending_payoutは出金申請中で引き出せない分
type Wallet struct {
	UserID        int64     `gorm:"primaryKey" json:"user_id"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	PendingPayout int64     `gorm:"not null;default:0" json:"pending_payout"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

type LedgerEntryType string

const (
	LedgerOrderCredit   LedgerEntryType = "order_credit"
	LedgerPayoutHold    LedgerEntryType = "payout_hold"
	LedgerPayoutRelease LedgerEntryType = "payout_release"
	LedgerPayoutRefund  LedgerEntryType = "payout_refund"
)

// 台帳の1行。order_creditはorder_idで一意（二重入金防止）
type LedgerEntry struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	OrderID   *int64          `gorm:"index" json:"order_id"`
	PayoutID  *int64          `gorm:"index" json:"payout_id"`
	Type      LedgerEntryType `gorm:"type:varchar(20);not null" json:"type"`
	Amount    int64           `gorm:"not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

type PayoutStatus string

const (
	PayoutRequested PayoutStatus = "requested"
	PayoutProcessed PayoutStatus = "processed"
	PayoutRejected  PayoutStatus = "rejected"
)

type Payout struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	FreelancerID int64        `gorm:"not null;index" json:"freelancer_id"`
	Amount       int64        `gorm:"not null" json:"amount"`
	Status       PayoutStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes        string       `gorm:"type:text;not null;default:''" json:"notes"`
	ProcessedBy  *int64       `json:"processed_by"`
	ProcessedAt  *time.Time   `json:"processed_at"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}
