package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/repository"
)

var _ repository.SMSCodeRepository = (*smsCodeRepo)(nil)

type smsCodeRepo struct {
	pool *pgxpool.Pool
}

func NewSMSCodeRepo(pool *pgxpool.Pool) repository.SMSCodeRepository {
	return &smsCodeRepo{pool: pool}
}

// AcquirePhoneLock takes a transaction-scoped advisory lock keyed on the
// phone. Held until commit; a no-op outside a transaction, where it would
// release at statement end and protect nothing.
func (r *smsCodeRepo) AcquirePhoneLock(ctx context.Context, tx repository.Tx, phone string) error {
	if !inTx(tx) {
		return nil
	}
	const q = `SELECT pg_advisory_xact_lock(hashtextextended('sms_codes:' || $1, 0));`
	_, err := execSQL(ctx, r.pool, tx, q, phone)
	return err
}

func (r *smsCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.SMSCode) error {
	const q = `
INSERT INTO sms_codes (id, phone, code_hash, attempts, is_used, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  attempts = EXCLUDED.attempts,
  is_used  = EXCLUDED.is_used;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Phone, c.CodeHash, c.Attempts, c.IsUsed, c.ExpiresAt, c.CreatedAt,
	)
	// The partial unique index on live phones backstops the advisory lock.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *smsCodeRepo) FindLatestUnusedByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.SMSCode, error) {
	q := `
SELECT id, phone, code_hash, attempts, is_used, expires_at, created_at
  FROM sms_codes
 WHERE phone = $1 AND is_used = FALSE
 ORDER BY created_at DESC
 LIMIT 1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, phone)
	if err != nil {
		return nil, err
	}
	var c model.SMSCode
	err = row.Scan(&c.ID, &c.Phone, &c.CodeHash, &c.Attempts, &c.IsUsed, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

func (r *smsCodeRepo) DeleteByPhone(ctx context.Context, tx repository.Tx, phone string) error {
	const q = `DELETE FROM sms_codes WHERE phone = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, phone)
	return err
}
