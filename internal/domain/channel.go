package domain

import "time"

// Channel is a tracked YouTube channel: the owner's own channel plus up to
// two competitor channels.
type Channel struct {
	ID           string
	Title        string
	ThumbnailURL string
	IsCompetitor bool
	CreatedAt    time.Time
}

// ChannelSnapshot is an immutable fact row appended by the snapshot
// collector. Trend queries read the most recent row per channel.
type ChannelSnapshot struct {
	ID          int64
	ChannelID   string
	Subscribers int64
	Views       int64
	VideoCount  int64
	CapturedAt  time.Time
}

// VideoSnapshot is an immutable per-video counter row.
type VideoSnapshot struct {
	ID         int64
	VideoID    string
	Views      int64
	Likes      int64
	Dislikes   int64
	Comments   int64
	CapturedAt time.Time
}

// ChannelStats is the derived read model served by the stats endpoints.
type ChannelStats struct {
	ChannelID      string    `json:"channel_id"`
	Subscribers    int64     `json:"subscribers"`
	TotalViews     int64     `json:"total_views"`
	VideoCount     int64     `json:"video_count"`
	AvgViews       float64   `json:"avg_views"`
	AvgLikes       float64   `json:"avg_likes"`
	AvgComments    float64   `json:"avg_comments"`
	UploadsPerWeek float64   `json:"uploads_per_week"`
	CapturedAt     time.Time `json:"captured_at"`
}
