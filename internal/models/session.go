package models

import "time"

// UserSession backs a revocable bearer token.
type UserSession struct {
	Base
	UserID    string     `json:"user_id"    gorm:"index;not null"`
	Client    string     `json:"client"     gorm:"size:191"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
}

func (UserSession) TableName() string { return "user_sessions" }
