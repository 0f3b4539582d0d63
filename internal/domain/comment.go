package domain

import "time"

// CommentType is the sentiment class assigned by the external workflow.
type CommentType int

const (
	CommentTypeNeutral  CommentType = 0
	CommentTypePositive CommentType = 1
	CommentTypeNegative CommentType = 2
)

// CommentRecord is one YouTube comment as stored locally. Rows are upserted
// keyed by ExternalID; Type and IsFiltered are mutated by later classify and
// filter runs over the same comment.
type CommentRecord struct {
	ExternalID  string
	VideoID     string
	AuthorName  string
	AuthorID    string
	Text        string
	Type        CommentType
	PublishedAt time.Time
	IsTopLevel  bool
	IsFiltered  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CommentSummary is one analysis result. The table is an append-only audit
// trail: every successful analysis job creates a new row.
type CommentSummary struct {
	ID            int64
	VideoID       string
	Title         string
	Summary       string
	PositiveRatio *float64
	CreatedAt     time.Time
}

// Video tracks a YouTube video and the classification watermark.
// CommentClassifiedAt only moves forward, and only when a classify run
// durably stored at least one comment.
type Video struct {
	ID                  string
	ChannelID           string
	Name                string
	ThumbnailURL        string
	UploadDate          time.Time
	CommentClassifiedAt *time.Time
}
