package api

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/adapter"
)

// Ensure the manager satisfies the issuer port.
var _ adapter.TokenIssuer = (*TokenManager)(nil)

// UserClaims is the access-token claim set. Subject carries the user id.
type UserClaims struct {
	Superuser bool `json:"superuser"`
	jwt.RegisteredClaims
}

// TokenManager mints and parses HS256 user access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(u *model.User) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Superuser: u.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Parse(tok string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value, or ""
// when the header is absent or malformed.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
