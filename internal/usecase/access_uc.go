package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/repository"
	"lingotube-backend/internal/infra/logging"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase decides paywall access for a requested video. The gating
// video is the direct parent when one exists (one hop only, a segment's
// grandparent is never consulted), otherwise the video itself. Access is
// granted when the gating video is free or the caller is authenticated.
type AccessUseCase interface {
	ResolveByID(ctx context.Context, videoID string, authenticated bool) (*model.Video, error)
	ResolveByFileID(ctx context.Context, fileID string, authenticated bool) (*model.Video, error)
}

type accessUC struct {
	videos repository.VideoRepository
	log    *zerolog.Logger
}

func NewAccessUseCase(videos repository.VideoRepository, logger *zerolog.Logger) *accessUC {
	return &accessUC{videos: videos, log: logger}
}

func (u *accessUC) ResolveByID(ctx context.Context, videoID string, authenticated bool) (*model.Video, error) {
	defer logging.TraceDuration(u.log, "AccessUC.ResolveByID")()

	video, err := u.videos.FindByID(ctx, repository.NoTX, videoID)
	if err != nil {
		return nil, err
	}
	return u.gate(ctx, video, authenticated)
}

func (u *accessUC) ResolveByFileID(ctx context.Context, fileID string, authenticated bool) (*model.Video, error) {
	defer logging.TraceDuration(u.log, "AccessUC.ResolveByFileID")()

	video, err := u.videos.FindByFileID(ctx, repository.NoTX, fileID)
	if err != nil {
		return nil, err
	}
	return u.gate(ctx, video, authenticated)
}

func (u *accessUC) gate(ctx context.Context, video *model.Video, authenticated bool) (*model.Video, error) {
	gating := video
	if video.Segment() {
		parent, err := u.videos.FindByID(ctx, repository.NoTX, *video.ParentID)
		if err == nil {
			gating = parent
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// A dangling parent link falls back to the video's own flag.
	}

	if !gating.IsFree && !authenticated {
		return nil, domain.ErrUnauthorized
	}
	return video, nil
}
