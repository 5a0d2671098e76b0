package middleware

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/pkg/jwt"
	"github.com/bdp-api/helper/internal/pkg/response"
	sessionpkg "github.com/bdp-api/helper/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"
	apiTokenPrefix   = "txo"
)

var errNoCredentials = errors.New("credentials are required")

// Auth rejects requests without a valid bearer token, API token or
// application password with 401 rest_forbidden.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authenticate(db, c.GetHeader("Authorization"), c.Query("token"))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		setClaims(c, db, claims)
		c.Next()
	}
}

// OptionalAuth records the caller when credentials are valid and never blocks.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := Authenticate(db, c.GetHeader("Authorization"), c.Query("token")); err == nil && claims.UserID != "" {
			setClaims(c, db, claims)
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, db *gorm.DB, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	if claims.SessionID != "" {
		c.Set(ContextKeySID, claims.SessionID)
		sessionpkg.Touch(db, claims.UserID, claims.SessionID)
	}
}

// Authenticate resolves an Authorization header (Bearer or Basic) or a
// token query parameter to the caller's claims.
func Authenticate(db *gorm.DB, header, queryToken string) (*jwt.Claims, error) {
	if user, pass, ok := parseBasic(header); ok {
		userID, err := validateAppPassword(db, user, pass)
		if err != nil {
			return nil, err
		}
		return &jwt.Claims{UserID: userID}, nil
	}
	token := NormalizeToken(header)
	if token == "" {
		token = NormalizeToken(queryToken)
	}
	return ValidateTokenClaims(db, token)
}

// ValidateTokenClaims validates a JWT or API token.
func ValidateTokenClaims(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errNoCredentials
	}

	if strings.HasPrefix(token, apiTokenPrefix) {
		userID, err := validateAPIToken(db, token)
		if err != nil {
			return nil, err
		}
		return &jwt.Claims{UserID: userID}, nil
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// parseBasic decodes an HTTP Basic Authorization header. Application
// passwords are often pasted with their display spaces, which are dropped.
func parseBasic(header string) (user, pass string, ok bool) {
	header = strings.TrimSpace(header)
	if len(header) < 6 || !strings.EqualFold(header[:6], "basic ") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[6:]))
	if err != nil {
		return "", "", false
	}
	user, pass, ok = strings.Cut(string(raw), ":")
	if !ok || user == "" {
		return "", "", false
	}
	return user, strings.ReplaceAll(pass, " ", ""), true
}

func validateAPIToken(db *gorm.DB, token string) (string, error) {
	var row models.APIToken
	err := db.Select("user_id").
		Where("token = ? AND (expired_at IS NULL OR expired_at > ?)", token, time.Now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.New("api token not found")
	}
	if err != nil {
		return "", err
	}
	return row.UserID, nil
}

func validateAppPassword(db *gorm.DB, username, password string) (string, error) {
	var user models.UserModel
	err := db.Preload("AppPasswords").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.New("unknown user")
	}
	if err != nil {
		return "", err
	}
	matched := matchAppPassword(user.AppPasswords, password)
	if matched == nil {
		return "", errors.New("application password mismatch")
	}
	now := time.Now()
	_ = db.Model(matched).Update("last_used", &now).Error
	return user.ID, nil
}

// matchAppPassword returns the row whose bcrypt hash accepts password.
func matchAppPassword(rows []models.AppPasswordModel, password string) *models.AppPasswordModel {
	if password == "" {
		return nil
	}
	for i := range rows {
		if bcrypt.CompareHashAndPassword([]byte(rows[i].Hash), []byte(password)) == nil {
			return &rows[i]
		}
	}
	return nil
}

// HashAppPassword produces the stored form of a new application password.
func HashAppPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(strings.ReplaceAll(password, " ", "")), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
