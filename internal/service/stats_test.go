package service

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/cache"
	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
)

func TestChannelStatsAggregatesLatestSnapshots(t *testing.T) {
	ctx := context.Background()
	channels := repository.NewMemoryChannelsRepository()
	comments := repository.NewMemoryCommentsRepository()
	statsCache := cache.NewStatsCache(nil, 0, nil)
	logger := log.New(io.Discard, "", 0)
	service := NewStatsService(channels, comments, statsCache, logger)

	now := time.Now().UTC()
	err := channels.AddChannelSnapshot(ctx, &domain.ChannelSnapshot{
		ChannelID:   "channel-1",
		Subscribers: 1200,
		Views:       500000,
		VideoCount:  40,
		CapturedAt:  now,
	})
	if err != nil {
		t.Fatalf("seed channel snapshot: %v", err)
	}

	channels.TrackVideo("v1", "channel-1")
	channels.TrackVideo("v2", "channel-1")
	seedVideoSnapshot := func(videoID string, views, likes, commentCount int64) {
		err := channels.AddVideoSnapshot(ctx, &domain.VideoSnapshot{
			VideoID:    videoID,
			Views:      views,
			Likes:      likes,
			Comments:   commentCount,
			CapturedAt: now,
		})
		if err != nil {
			t.Fatalf("seed video snapshot: %v", err)
		}
	}
	seedVideoSnapshot("v1", 1000, 100, 10)
	seedVideoSnapshot("v2", 2000, 50, 30)

	// Two uploads inside the eight week cadence window.
	for _, video := range []struct {
		id   string
		days int
	}{{"v1", -7}, {"v2", -14}, {"v-old", -120}} {
		err := comments.UpsertVideo(ctx, &domain.Video{
			ID:         video.id,
			ChannelID:  "channel-1",
			UploadDate: now.AddDate(0, 0, video.days),
		})
		if err != nil {
			t.Fatalf("seed video: %v", err)
		}
	}

	stats, err := service.ChannelStats(ctx, "channel-1")
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}

	if stats.Subscribers != 1200 || stats.TotalViews != 500000 || stats.VideoCount != 40 {
		t.Fatalf("unexpected snapshot numbers %+v", stats)
	}
	if stats.AvgViews != 1500 {
		t.Fatalf("expected avg views 1500, got %v", stats.AvgViews)
	}
	if stats.AvgLikes != 75 {
		t.Fatalf("expected avg likes 75, got %v", stats.AvgLikes)
	}
	if stats.AvgComments != 20 {
		t.Fatalf("expected avg comments 20, got %v", stats.AvgComments)
	}
	if stats.UploadsPerWeek != 0.3 {
		t.Fatalf("expected 0.3 uploads per week (2 in 8 weeks), got %v", stats.UploadsPerWeek)
	}
}

func TestChannelStatsWithoutSnapshotsReturnsNotFound(t *testing.T) {
	service := NewStatsService(
		repository.NewMemoryChannelsRepository(),
		repository.NewMemoryCommentsRepository(),
		cache.NewStatsCache(nil, 0, nil),
		log.New(io.Discard, "", 0),
	)

	if _, err := service.ChannelStats(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for channel without snapshots")
	}
}

func TestVideoStatsReadsLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	channels := repository.NewMemoryChannelsRepository()
	service := NewStatsService(
		channels,
		repository.NewMemoryCommentsRepository(),
		cache.NewStatsCache(nil, 0, nil),
		log.New(io.Discard, "", 0),
	)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, views := range []int64{10, 30} {
		err := channels.AddVideoSnapshot(ctx, &domain.VideoSnapshot{
			VideoID:    "video-1",
			Views:      views,
			CapturedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	snapshot, err := service.VideoStats(ctx, "video-1")
	if err != nil {
		t.Fatalf("video stats: %v", err)
	}
	if snapshot.Views != 30 {
		t.Fatalf("expected newest snapshot, got views=%d", snapshot.Views)
	}
}
