package model

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"lingotube-backend/internal/domain"
)

// ActivationSession is the short-lived pre-authentication window issued after
// an activation code passes verification. The bearer token is consumed during
// registration; at most one unused, unexpired session exists per code.
type ActivationSession struct {
	ID        string
	Token     string
	CodeID    string
	IsUsed    bool
	UsedAt    *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

func NewActivationSession(codeID string, ttl time.Duration) (*ActivationSession, error) {
	if codeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	tok, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &ActivationSession{
		ID:        ulid.Make().String(),
		Token:     tok,
		CodeID:    codeID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

func (s *ActivationSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

func (s *ActivationSession) Consume(now time.Time) error {
	if s.IsUsed {
		return domain.ErrSessionInvalid
	}
	s.IsUsed = true
	s.UsedAt = &now
	return nil
}

// newSessionToken draws 32 bytes from the CSPRNG and encodes them as
// unpadded base64url, yielding a 43-character unguessable bearer value.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
