package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

// Save creates or updates an activation code. ON CONFLICT covers both
// minting a new code and marking an existing one as consumed.
func (r *activationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	const q = `
INSERT INTO activation_codes (id, code, is_used, used_at, used_by_user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  is_used = EXCLUDED.is_used,
  used_at = EXCLUDED.used_at,
  used_by_user_id = EXCLUDED.used_by_user_id;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.IsUsed, code.UsedAt, code.UsedByUserID, code.ExpiresAt, code.CreatedAt,
	)
	return err
}

func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `
SELECT id, code, is_used, used_at, used_by_user_id, expires_at, created_at
  FROM activation_codes
 WHERE code = $1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanActivationCode(row)
}

func (r *activationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	q := `
SELECT id, code, is_used, used_at, used_by_user_id, expires_at, created_at
  FROM activation_codes
 WHERE id = $1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanActivationCode(row)
}

func (r *activationCodeRepo) ExistsByCode(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM activation_codes WHERE code = $1);`, code)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func scanActivationCode(row pgx.Row) (*model.ActivationCode, error) {
	var ac model.ActivationCode
	err := row.Scan(&ac.ID, &ac.Code, &ac.IsUsed, &ac.UsedAt, &ac.UsedByUserID, &ac.ExpiresAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &ac, nil
}
