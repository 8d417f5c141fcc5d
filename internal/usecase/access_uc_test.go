//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/usecase"
)

func strPtr(s string) *string { return &s }

// seedVideos builds a small catalog exercising every gating shape:
//
//	free-full          free standalone video
//	paid-full          paid standalone video
//	free-parent        free group with a paid segment under it
//	paid-parent        paid group with a free segment under it
//	orphan-segment     segment whose parent link dangles
func seedVideos(t *testing.T) *MockVideoRepo {
	t.Helper()
	repo := NewMockVideoRepo()
	ctx := context.Background()
	videos := []*model.Video{
		{ID: "free-full", VideoType: model.VideoTypeFull, IsFree: true, VodFileID: strPtr("f-free")},
		{ID: "paid-full", VideoType: model.VideoTypeFull, IsFree: false, VodFileID: strPtr("f-paid")},
		{ID: "free-parent", VideoType: model.VideoTypeGroup, IsFree: true},
		{ID: "paid-parent", VideoType: model.VideoTypeGroup, IsFree: false},
		{ID: "seg-under-free", VideoType: model.VideoTypeSegment, IsFree: false, ParentID: strPtr("free-parent"), VodFileID: strPtr("f-seg-free")},
		{ID: "seg-under-paid", VideoType: model.VideoTypeSegment, IsFree: true, ParentID: strPtr("paid-parent"), VodFileID: strPtr("f-seg-paid")},
		{ID: "orphan-segment", VideoType: model.VideoTypeSegment, IsFree: true, ParentID: strPtr("gone"), VodFileID: strPtr("f-orphan")},
	}
	for _, v := range videos {
		if err := repo.Save(ctx, nil, v); err != nil {
			t.Fatalf("seed video %s: %v", v.ID, err)
		}
	}
	return repo
}

func TestAccessUseCase_ResolveByID(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAccessUseCase(seedVideos(t), newTestLogger())

	cases := []struct {
		name          string
		videoID       string
		authenticated bool
		want          error
	}{
		{"free video, anonymous", "free-full", false, nil},
		{"paid video, anonymous", "paid-full", false, domain.ErrUnauthorized},
		{"paid video, authenticated", "paid-full", true, nil},
		// The parent decides, not the segment's own flag.
		{"paid segment under free parent, anonymous", "seg-under-free", false, nil},
		{"free segment under paid parent, anonymous", "seg-under-paid", false, domain.ErrUnauthorized},
		{"free segment under paid parent, authenticated", "seg-under-paid", true, nil},
		// A dangling parent link falls back to the segment's own flag.
		{"orphan segment, anonymous", "orphan-segment", false, nil},
		{"unknown video", "no-such-video", true, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := uc.ResolveByID(ctx, tc.videoID, tc.authenticated)
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("got %v, want %v", err, tc.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// The requested video comes back, never the gating parent.
			if v.ID != tc.videoID {
				t.Errorf("resolved %s, want %s", v.ID, tc.videoID)
			}
		})
	}
}

func TestAccessUseCase_ResolveByFileID(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAccessUseCase(seedVideos(t), newTestLogger())

	t.Run("should gate by the owning video's parent", func(t *testing.T) {
		if _, err := uc.ResolveByFileID(ctx, "f-seg-paid", false); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
		v, err := uc.ResolveByFileID(ctx, "f-seg-free", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.ID != "seg-under-free" {
			t.Errorf("resolved %s, want seg-under-free", v.ID)
		}
	})

	t.Run("should report unknown file ids", func(t *testing.T) {
		if _, err := uc.ResolveByFileID(ctx, "no-such-file", true); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}
