package repository

import (
	"context"

	"lingotube-backend/internal/domain/model"
)

// VideoRepository is the access-control slice of video storage: lookups by
// id, by VOD file id, and the one-hop parent resolution.
type VideoRepository interface {
	Save(ctx context.Context, tx Tx, v *model.Video) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Video, error)
	FindByFileID(ctx context.Context, tx Tx, fileID string) (*model.Video, error)
}
