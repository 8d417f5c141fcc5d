package model

import "time"

// Video hierarchy kinds. Segments hang one level below a group or full
// video via ParentID; deeper nesting is not modeled.
const (
	VideoTypeFull    = "full"
	VideoTypeSegment = "segment"
	VideoTypeGroup   = "group"
)

// Video is the access-control slice of a video record. Paywall decisions
// only need the free flag, the parent link and the VOD file binding.
type Video struct {
	ID          string
	Title       string
	ParentID    *string
	VodFileID   *string
	VideoType   string
	IsFree      bool
	IsPublished bool
	CreatedAt   time.Time
}

// Segment reports whether this video inherits its paywall from a parent.
func (v *Video) Segment() bool {
	return v.ParentID != nil && *v.ParentID != ""
}
