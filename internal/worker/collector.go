package worker

import (
	"context"
	"log"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/youtube"
)

// StatsSource is the Data API slice the collector needs.
type StatsSource interface {
	ChannelInfo(ctx context.Context, channelID string) (youtube.ChannelInfo, error)
	VideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

// SnapshotCollector periodically appends one channel snapshot per tracked
// channel and one video snapshot per known video. Rows are immutable facts;
// a failing entity is skipped and the sweep continues.
type SnapshotCollector struct {
	channels repository.ChannelsRepository
	comments repository.CommentsRepository
	source   StatsSource
	interval time.Duration
	logger   *log.Logger
}

func NewSnapshotCollector(
	channels repository.ChannelsRepository,
	comments repository.CommentsRepository,
	source StatsSource,
	interval time.Duration,
	logger *log.Logger,
) *SnapshotCollector {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &SnapshotCollector{
		channels: channels,
		comments: comments,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Start sweeps once immediately and then on every tick until the context is
// cancelled.
func (c *SnapshotCollector) Start(ctx context.Context) {
	c.sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *SnapshotCollector) sweep(ctx context.Context) {
	channels, err := c.channels.ListChannels(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("snapshot sweep: list channels failed: %v", err)
		}
		return
	}

	captured := time.Now().UTC()
	for _, channel := range channels {
		if ctx.Err() != nil {
			return
		}
		c.snapshotChannel(ctx, channel.ID, captured)
	}
}

func (c *SnapshotCollector) snapshotChannel(ctx context.Context, channelID string, captured time.Time) {
	info, err := c.source.ChannelInfo(ctx, channelID)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("snapshot sweep: channel lookup failed channel_id=%s err=%v", channelID, err)
		}
		return
	}

	snapshot := &domain.ChannelSnapshot{
		ChannelID:   channelID,
		Subscribers: info.Subscribers,
		Views:       info.Views,
		VideoCount:  info.VideoCount,
		CapturedAt:  captured,
	}
	if err := c.channels.AddChannelSnapshot(ctx, snapshot); err != nil {
		if c.logger != nil {
			c.logger.Printf("snapshot sweep: channel write failed channel_id=%s err=%v", channelID, err)
		}
		return
	}

	videos, err := c.comments.ListVideosByChannel(ctx, channelID)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("snapshot sweep: list videos failed channel_id=%s err=%v", channelID, err)
		}
		return
	}

	for _, video := range videos {
		if ctx.Err() != nil {
			return
		}
		videoInfo, err := c.source.VideoInfo(ctx, video.ID)
		if err != nil {
			if c.logger != nil {
				c.logger.Printf("snapshot sweep: video lookup failed video_id=%s err=%v", video.ID, err)
			}
			continue
		}
		videoSnapshot := &domain.VideoSnapshot{
			VideoID:    video.ID,
			Views:      videoInfo.Stats.Views,
			Likes:      videoInfo.Stats.Likes,
			Dislikes:   videoInfo.Stats.Dislikes,
			Comments:   videoInfo.Stats.Comments,
			CapturedAt: captured,
		}
		if err := c.channels.AddVideoSnapshot(ctx, videoSnapshot); err != nil && c.logger != nil {
			c.logger.Printf("snapshot sweep: video write failed video_id=%s err=%v", video.ID, err)
		}
	}
}
