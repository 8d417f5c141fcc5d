package repository

import (
	"context"

	"lingotube-backend/internal/domain/model"
)

// SMSCodeRepository manages outstanding one-time passcodes.
type SMSCodeRepository interface {
	// AcquirePhoneLock serializes code issuance for the phone within the
	// surrounding transaction. Delete-then-insert alone cannot do that: two
	// transactions that each see no live row both insert one.
	AcquirePhoneLock(ctx context.Context, tx Tx, phone string) error
	Save(ctx context.Context, tx Tx, c *model.SMSCode) error
	// FindLatestUnusedByPhone returns the newest not-yet-used record for the
	// phone, row-locked inside a transaction so concurrent verifications of
	// the same phone serialize.
	FindLatestUnusedByPhone(ctx context.Context, tx Tx, phone string) (*model.SMSCode, error)
	// DeleteByPhone drops all records for the phone. Issuing a new code goes
	// through here first so at most one live record exists per phone.
	DeleteByPhone(ctx context.Context, tx Tx, phone string) error
}
