package model

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPaymentVerified OrderStatus = "payment_verified"
	OrderStatusInProgress      OrderStatus = "in_progress"
	OrderStatusReview          OrderStatus = "review"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// 支払いステータス（注文ステータスとは別軸）
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
)

type Order struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber  string `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	ServiceID    int64  `gorm:"not null;index" json:"service_id"`
	ClientID     int64  `gorm:"not null;index" json:"client_id"`
	FreelancerID int64  `gorm:"not null;index" json:"freelancer_id"`

	PackageName  string    `gorm:"type:varchar(100);not null" json:"package_name"`
	PackagePrice int64     `gorm:"not null" json:"package_price"`
	ServiceFee   int64     `gorm:"not null;default:0" json:"service_fee"`
	TotalAmount  int64     `gorm:"not null" json:"total_amount"`
	DueDate      time.Time `gorm:"not null" json:"due_date"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`

	TransactionRef    *string `gorm:"type:varchar(255)" json:"transaction_ref"`
	PaymentScreenshot *string `gorm:"type:text" json:"payment_screenshot"`
	PaymentNotes      string  `gorm:"type:text;not null;default:''" json:"payment_notes"`
	ClientConfirmed   bool    `gorm:"not null;default:false" json:"client_confirmed"`

	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
	PaymentVerifiedAt *time.Time `json:"payment_verified_at"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

var (
	ErrInvalidPrice        = errors.New("package price must be >= 0")
	ErrInvalidDeliveryDays = errors.New("delivery days must be > 0")
	ErrSelfOrder           = errors.New("cannot order your own service")
)

type NewOrderParams struct {
	OrderNumber  string
	ServiceID    int64
	ClientID     int64
	FreelancerID int64
	PackageName  string
	PackagePrice int64
	DeliveryDays int
	Now          time.Time
}

// 注文を作る。合計はパッケージ価格そのまま（手数料は0）
func NewOrder(p NewOrderParams) (Order, error) {
	if p.PackagePrice < 0 {
		return Order{}, ErrInvalidPrice
	}
	if p.DeliveryDays <= 0 {
		return Order{}, ErrInvalidDeliveryDays
	}
	if p.ClientID == p.FreelancerID {
		return Order{}, ErrSelfOrder
	}

	return Order{
		OrderNumber:   p.OrderNumber,
		ServiceID:     p.ServiceID,
		ClientID:      p.ClientID,
		FreelancerID:  p.FreelancerID,
		PackageName:   p.PackageName,
		PackagePrice:  p.PackagePrice,
		ServiceFee:    0,
		TotalAmount:   p.PackagePrice,
		DueDate:       p.Now.AddDate(0, 0, p.DeliveryDays),
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		CreatedAt:     p.Now,
		UpdatedAt:     p.Now,
	}, nil
}

func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

func (o Order) IsParticipant(userID int64) bool {
	return userID == o.ClientID || userID == o.FreelancerID
}

// 相手側のユーザーID（参加者でなければ0）
func (o Order) CounterpartOf(userID int64) int64 {
	switch userID {
	case o.ClientID:
		return o.FreelancerID
	case o.FreelancerID:
		return o.ClientID
	default:
		return 0
	}
}

func (o Order) HasPaymentProof() bool {
	return o.TransactionRef != nil && *o.TransactionRef != ""
}

// 支払い証明のアップロード可否
func (o Order) CheckProofUpload(a Actor) *TransitionError {
	if a.Role != RoleClient || a.UserID != o.ClientID {
		return forbidden("only the order's client can upload payment proof")
	}
	if err := terminalError(o); err != nil {
		return err
	}
	if o.PaymentStatus == PaymentStatusVerified {
		return invalid("payment already verified")
	}
	if o.Status != OrderStatusPending {
		return invalid("payment proof can only be uploaded while order is pending")
	}
	return nil
}

// レビュー可否: 支払い確認済み・キャンセルでない・未レビュー
func (o Order) CanReview(hasReview bool) bool {
	return o.PaymentStatus == PaymentStatusVerified &&
		o.Status != OrderStatusCancelled &&
		!hasReview
}

// レビュー待ち（UI用の導出値。保存しない）
func (o Order) WaitingForReview(hasReview bool) bool {
	return o.Status == OrderStatusReview &&
		o.PaymentStatus == PaymentStatusVerified &&
		!hasReview
}
