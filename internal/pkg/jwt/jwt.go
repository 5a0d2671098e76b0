// Package jwt signs and verifies the bearer tokens that authorize listing writes.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	Issuer        = "bdp-api-helper"
	defaultSecret = "bdp-api-helper-secret-change-me"
	leeway        = 30 * time.Second
)

var (
	secret = []byte(defaultSecret)

	ErrNoSubject = errors.New("token has no subject")
)

// SetSecret replaces the HMAC key. Empty values are ignored.
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Claims carries the user id and, for revocable tokens, the session row id.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid,omitempty"`
	jwtlib.RegisteredClaims
}

func Sign(userID, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies signature, issuer and expiry and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims,
		func(*jwtlib.Token) (interface{}, error) { return secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithLeeway(leeway),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}
