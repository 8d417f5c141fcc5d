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

var _ repository.ActivationSessionRepository = (*activationSessionRepo)(nil)

type activationSessionRepo struct {
	pool *pgxpool.Pool
}

func NewActivationSessionRepo(pool *pgxpool.Pool) repository.ActivationSessionRepository {
	return &activationSessionRepo{pool: pool}
}

func (r *activationSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.ActivationSession) error {
	const q = `
INSERT INTO activation_sessions (id, token, code_id, is_used, used_at, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  is_used = EXCLUDED.is_used,
  used_at = EXCLUDED.used_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.Token, s.CodeID, s.IsUsed, s.UsedAt, s.ExpiresAt, s.CreatedAt,
	)
	return err
}

func (r *activationSessionRepo) FindUnusedByToken(ctx context.Context, tx repository.Tx, token string) (*model.ActivationSession, error) {
	q := `
SELECT id, token, code_id, is_used, used_at, expires_at, created_at
  FROM activation_sessions
 WHERE token = $1 AND is_used = FALSE`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	var s model.ActivationSession
	err = row.Scan(&s.ID, &s.Token, &s.CodeID, &s.IsUsed, &s.UsedAt, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func (r *activationSessionRepo) DeleteUnusedByCode(ctx context.Context, tx repository.Tx, codeID string) error {
	const q = `DELETE FROM activation_sessions WHERE code_id = $1 AND is_used = FALSE;`
	_, err := execSQL(ctx, r.pool, tx, q, codeID)
	return err
}
