// Package auth issues and verifies the JWT bearer tokens protecting the
// API, and provides the HTTP middleware that enforces them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures. All map to 401 at the HTTP boundary.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrRefreshToken = errors.New("refresh token not allowed here")
)

// Default token lifetimes, matching the original service settings.
const (
	DefaultAccessTTL  = 48 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the verified contents of a token.
type Claims struct {
	UserID  uuid.UUID
	JTI     string
	Refresh bool
}

type tokenClaims struct {
	Refresh bool `json:"refresh"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates an Issuer. Non-positive TTLs fall back to defaults.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess signs a new access token for the user.
func (i *Issuer) IssueAccess(userID uuid.UUID) (string, error) {
	return i.issue(userID, i.accessTTL, false)
}

// IssueRefresh signs a new refresh token for the user.
func (i *Issuer) IssueRefresh(userID uuid.UUID) (string, error) {
	return i.issue(userID, i.refreshTTL, true)
}

// IssuePair signs an access and refresh token pair.
func (i *Issuer) IssuePair(userID uuid.UUID) (access, refresh string, err error) {
	if access, err = i.IssueAccess(userID); err != nil {
		return "", "", err
	}
	if refresh, err = i.IssueRefresh(userID); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (i *Issuer) issue(userID uuid.UUID, ttl time.Duration, refresh bool) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:  userID,
		JTI:     claims.ID,
		Refresh: claims.Refresh,
	}, nil
}
