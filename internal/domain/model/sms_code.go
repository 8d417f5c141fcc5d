package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"lingotube-backend/internal/domain"
)

// MaxOTPAttempts caps wrong guesses per SMS code. The cap is checked before
// the hash comparison so a correct 6th guess still fails.
const MaxOTPAttempts = 5

// SMSCode is one outstanding one-time passcode for a phone number. Only the
// bcrypt hash of the code is stored; issuing a new code replaces any prior
// record for the same phone.
type SMSCode struct {
	ID        string
	Phone     string
	CodeHash  string
	Attempts  int
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func NewSMSCode(phone, codeHash string, ttl time.Duration) (*SMSCode, error) {
	if phone == "" || codeHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &SMSCode{
		ID:        ulid.Make().String(),
		Phone:     phone,
		CodeHash:  codeHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

func (c *SMSCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// Exhausted reports whether the attempt budget is already spent.
func (c *SMSCode) Exhausted() bool {
	return c.Attempts >= MaxOTPAttempts
}

// RegisterFailure records one wrong guess. Attempts only ever increase; the
// counter resets solely by issuing a replacement code.
func (c *SMSCode) RegisterFailure() {
	c.Attempts++
}

func (c *SMSCode) MarkUsed() {
	c.IsUsed = true
}
