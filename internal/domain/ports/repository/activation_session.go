package repository

import (
	"context"

	"lingotube-backend/internal/domain/model"
)

// ActivationSessionRepository manages pre-registration session windows.
type ActivationSessionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.ActivationSession) error
	// FindUnusedByToken finds a not-yet-consumed session by its bearer token.
	FindUnusedByToken(ctx context.Context, tx Tx, token string) (*model.ActivationSession, error)
	// DeleteUnusedByCode removes every unused session bound to the code,
	// superseding any redemption window still outstanding.
	DeleteUnusedByCode(ctx context.Context, tx Tx, codeID string) error
}
