package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"lingotube-backend/internal/domain"
)

// ActivationCode represents a single-use invite code that can be redeemed
// to create an account. Once consumed it is immutable.
type ActivationCode struct {
	ID           string
	Code         string
	IsUsed       bool
	UsedAt       *time.Time // Pointer to allow for NULL
	UsedByUserID *string    // Pointer to allow for NULL
	ExpiresAt    *time.Time // Pointer to allow for NULL
	CreatedAt    time.Time
}

func NewActivationCode(code string, expiresAt *time.Time) (*ActivationCode, error) {
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ActivationCode{
		ID:        ulid.Make().String(),
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// Expired reports whether the code's optional expiry has passed.
func (c *ActivationCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Consume marks the code as used by the given user. It is an error to
// consume a code twice.
func (c *ActivationCode) Consume(userID string, now time.Time) error {
	if c.IsUsed {
		return domain.ErrCodeAlreadyUsed
	}
	c.IsUsed = true
	c.UsedAt = &now
	c.UsedByUserID = &userID
	return nil
}
