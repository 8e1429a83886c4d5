package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleFreelancer Role = "FREELANCER"
	RoleAdmin      Role = "ADMIN"
)

// JWTのrole文字列をRoleに変換する（未知の値はエラー）
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient, nil
	case RoleFreelancer:
		return RoleFreelancer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"type:varchar(255);not null;default:''"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'CLIENT'"`
	TokenVersion int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// 操作する人。全usecaseに明示的に渡す
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) Valid() bool {
	if a.UserID <= 0 {
		return false
	}
	switch a.Role {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return true
	default:
		return false
	}
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
