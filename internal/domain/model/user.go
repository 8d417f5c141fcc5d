package model

import (
	"time"

	"github.com/google/uuid"

	"lingotube-backend/internal/domain"
)

// User is the account slice relevant to credential issuance. Phone and
// username are both optional but unique when present: SMS-provisioned users
// start with a phone and no username, activation-registered users the
// opposite.
type User struct {
	ID           string
	Phone        *string
	Username     *string
	Email        string
	PasswordHash string
	DisplayName  *string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(email, passwordHash string) (*User, error) {
	if email == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func (u *User) WithPhone(phone string) *User {
	u.Phone = &phone
	return u
}

func (u *User) WithUsername(username string) *User {
	u.Username = &username
	u.DisplayName = &username
	return u
}
