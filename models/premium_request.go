package models

import (
	"time"
)

const (
	PremiumStatusPending   = "pending"
	PremiumStatusCompleted = "completed"
)

// PremiumRequest is a public upgrade contact request. It lives outside any
// user scope.
type PremiumRequest struct {
	ID           string    `gorm:"type:varchar(26);primary_key" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null" json:"email"`
	Phone        string    `gorm:"not null" json:"phone"`
	PasswordHash string    `json:"-"`
	Status       string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}

func (PremiumRequest) TableName() string { return "premium_requests" }
