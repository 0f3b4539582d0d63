package service

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/cache"
	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
)

// Cadence is computed over the trailing eight weeks.
const cadenceWindowWeeks = 8

// StatsService derives read models from the append-only snapshot tables.
// All numbers come from the most recent snapshot row per entity; nothing
// here calls the YouTube API.
type StatsService struct {
	channels repository.ChannelsRepository
	comments repository.CommentsRepository
	cache    *cache.StatsCache
	logger   *log.Logger
}

func NewStatsService(
	channels repository.ChannelsRepository,
	comments repository.CommentsRepository,
	statsCache *cache.StatsCache,
	logger *log.Logger,
) *StatsService {
	return &StatsService{
		channels: channels,
		comments: comments,
		cache:    statsCache,
		logger:   logger,
	}
}

func (s *StatsService) ChannelStats(ctx context.Context, channelID string) (*domain.ChannelStats, error) {
	if cached, err := s.cache.GetChannelStats(ctx, channelID); err == nil && cached != nil {
		var stats domain.ChannelStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	snapshot, err := s.channels.LatestChannelSnapshot(ctx, channelID)
	if err != nil {
		return nil, err
	}

	stats := &domain.ChannelStats{
		ChannelID:   channelID,
		Subscribers: snapshot.Subscribers,
		TotalViews:  snapshot.Views,
		VideoCount:  snapshot.VideoCount,
		CapturedAt:  snapshot.CapturedAt,
	}

	videoSnapshots, err := s.channels.LatestVideoSnapshots(ctx, channelID)
	if err == nil && len(videoSnapshots) > 0 {
		var views, likes, comments int64
		for _, videoSnapshot := range videoSnapshots {
			views += videoSnapshot.Views
			likes += videoSnapshot.Likes
			comments += videoSnapshot.Comments
		}
		count := float64(len(videoSnapshots))
		stats.AvgViews = round1(float64(views) / count)
		stats.AvgLikes = round1(float64(likes) / count)
		stats.AvgComments = round1(float64(comments) / count)
	}

	since := time.Now().UTC().AddDate(0, 0, -7*cadenceWindowWeeks)
	uploads, err := s.comments.CountUploadsSince(ctx, channelID, since)
	if err == nil {
		stats.UploadsPerWeek = round1(float64(uploads) / cadenceWindowWeeks)
	}

	if err := s.cache.SetChannelStats(ctx, channelID, stats); err != nil && s.logger != nil {
		s.logger.Printf("stats cache write failed channel_id=%s err=%v", channelID, err)
	}

	return stats, nil
}

func (s *StatsService) VideoStats(ctx context.Context, videoID string) (*domain.VideoSnapshot, error) {
	return s.channels.LatestVideoSnapshot(ctx, videoID)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
