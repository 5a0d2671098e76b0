package models

import "time"

// UserModel is an account allowed to call the mutating routes.
type UserModel struct {
	Base
	Username     string             `json:"username"  gorm:"uniqueIndex;size:191;not null"`
	Name         string             `json:"name"`
	Mail         string             `json:"mail"`
	APITokens    []APIToken         `json:"api_tokens,omitempty"    gorm:"foreignKey:UserID"`
	AppPasswords []AppPasswordModel `json:"app_passwords,omitempty" gorm:"foreignKey:UserID"`
}

func (UserModel) TableName() string { return "users" }

// APIToken represents a personal API token for programmatic access.
type APIToken struct {
	Base
	UserID    string     `json:"-"          gorm:"index;not null"`
	Token     string     `json:"token"      gorm:"uniqueIndex;size:191;not null"`
	Name      string     `json:"name"`
	ExpiredAt *time.Time `json:"expired_at"`
}

func (APIToken) TableName() string { return "api_tokens" }

// AppPasswordModel is a bcrypt-hashed application password used with HTTP Basic auth.
type AppPasswordModel struct {
	Base
	UserID   string     `json:"-"         gorm:"index;not null"`
	Name     string     `json:"name"`
	Hash     string     `json:"-"         gorm:"not null"`
	LastUsed *time.Time `json:"last_used"`
}

func (AppPasswordModel) TableName() string { return "app_passwords" }
