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

var _ repository.VideoRepository = (*videoRepo)(nil)

type videoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) repository.VideoRepository {
	return &videoRepo{pool: pool}
}

const videoColumns = `id, title, parent_id, vod_file_id, video_type, is_free, is_published, created_at`

func (r *videoRepo) Save(ctx context.Context, tx repository.Tx, v *model.Video) error {
	const q = `
INSERT INTO videos (id, title, parent_id, vod_file_id, video_type, is_free, is_published, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  parent_id = EXCLUDED.parent_id,
  vod_file_id = EXCLUDED.vod_file_id,
  video_type = EXCLUDED.video_type,
  is_free = EXCLUDED.is_free,
  is_published = EXCLUDED.is_published;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		v.ID, v.Title, v.ParentID, v.VodFileID, v.VideoType, v.IsFree, v.IsPublished, v.CreatedAt,
	)
	return err
}

func (r *videoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Video, error) {
	return r.findOne(ctx, tx, `SELECT `+videoColumns+` FROM videos WHERE id = $1;`, id)
}

func (r *videoRepo) FindByFileID(ctx context.Context, tx repository.Tx, fileID string) (*model.Video, error) {
	return r.findOne(ctx, tx, `SELECT `+videoColumns+` FROM videos WHERE vod_file_id = $1;`, fileID)
}

func (r *videoRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.Video, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var v model.Video
	err = row.Scan(&v.ID, &v.Title, &v.ParentID, &v.VodFileID, &v.VideoType, &v.IsFree, &v.IsPublished, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &v, nil
}
