// Package session ties signed tokens to rows that can be revoked.
package session

import (
	"strings"
	"time"

	"github.com/bdp-api/helper/internal/models"
	jwtpkg "github.com/bdp-api/helper/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

// Issue stores a session for userID and returns a token bound to it.
func Issue(db *gorm.DB, userID, client string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &models.UserSession{
		UserID:    userID,
		Client:    strings.TrimSpace(client),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}
	token, err := jwtpkg.Sign(userID, s.ID, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

func live(db *gorm.DB, userID, sessionID string) *gorm.DB {
	return db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now())
}

// IsActive reports whether the session row is unexpired and unrevoked.
// Tokens without a session id are not revocable and always pass.
func IsActive(db *gorm.DB, userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return true, nil
	}
	var n int64
	if err := live(db, userID, sessionID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Touch bumps updated_at as a last-seen marker.
func Touch(db *gorm.DB, userID, sessionID string) {
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		_ = live(db, userID, sessionID).Update("updated_at", time.Now()).Error
	}
}

// Revoke marks one session revoked; gorm.ErrRecordNotFound when nothing matched.
func Revoke(db *gorm.DB, sessionID string) error {
	now := time.Now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
