package model

import "time"

// 出品サービス（注文時に条件をスナップショットする参照データ）
type Service struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FreelancerID int64     `gorm:"not null;index" json:"freelancer_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Price        int64     `gorm:"not null" json:"price"`
	DeliveryDays int       `gorm:"not null;default:7" json:"delivery_days"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type ServicePackage struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ServiceID    int64     `gorm:"not null;index" json:"service_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Price        int64     `gorm:"not null" json:"price"`
	DeliveryDays int       `gorm:"not null" json:"delivery_days"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// パッケージ未指定時の名前
const DefaultPackageName = "standard"
