package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong   = errors.New("comment must be at most 2000 characters")
)

// (order_id, client_id) で一意
type Review struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64     `gorm:"not null;uniqueIndex:ux_reviews_order_client" json:"order_id"`
	ClientID     int64     `gorm:"not null;uniqueIndex:ux_reviews_order_client" json:"client_id"`
	FreelancerID int64     `gorm:"not null;index" json:"freelancer_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text;not null;default:''" json:"comment"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func ValidateReviewInput(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrRatingOutOfRange
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// 集計値（保存しない）
type FreelancerRatingSummary struct {
	FreelancerID  int64   `json:"freelancer_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}
