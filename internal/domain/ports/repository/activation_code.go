package repository

import (
	"context"

	"lingotube-backend/internal/domain/model"
)

// ActivationCodeRepository is the port for managing activation codes.
type ActivationCodeRepository interface {
	// Save creates or updates an activation code.
	Save(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindByCode finds a code in any state. Inside a transaction the row is
	// locked so concurrent redemptions of the same code serialize.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// FindByID finds a code by primary key, row-locked inside a transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.ActivationCode, error)
	// ExistsByCode reports whether the code string is already minted.
	ExistsByCode(ctx context.Context, tx Tx, code string) (bool, error)
}
