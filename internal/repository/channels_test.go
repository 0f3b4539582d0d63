package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

func TestCreateChannelEnforcesCompetitorLimit(t *testing.T) {
	repo := NewMemoryChannelsRepository()
	ctx := context.Background()

	create := func(id string, competitor bool) error {
		return repo.CreateChannel(ctx, &domain.Channel{
			ID:           id,
			Title:        "channel " + id,
			IsCompetitor: competitor,
		})
	}

	if err := create("own", false); err != nil {
		t.Fatalf("own channel: %v", err)
	}
	if err := create("comp-1", true); err != nil {
		t.Fatalf("first competitor: %v", err)
	}
	if err := create("comp-2", true); err != nil {
		t.Fatalf("second competitor: %v", err)
	}
	if err := create("comp-3", true); !errors.Is(err, ErrCompetitorLimit) {
		t.Fatalf("expected competitor limit error, got %v", err)
	}

	// Removing one competitor frees a slot.
	if err := repo.DeleteChannel(ctx, "comp-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := create("comp-3", true); err != nil {
		t.Fatalf("expected slot freed after delete, got %v", err)
	}
}

func TestLatestSnapshotsPickNewestRow(t *testing.T) {
	repo := NewMemoryChannelsRepository()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, subscribers := range []int64{100, 150, 200} {
		err := repo.AddChannelSnapshot(ctx, &domain.ChannelSnapshot{
			ChannelID:   "channel-1",
			Subscribers: subscribers,
			CapturedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("add snapshot: %v", err)
		}
	}

	latest, err := repo.LatestChannelSnapshot(ctx, "channel-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Subscribers != 200 {
		t.Fatalf("expected newest snapshot, got subscribers=%d", latest.Subscribers)
	}

	if _, err := repo.LatestChannelSnapshot(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestVideoSnapshotsGroupByVideo(t *testing.T) {
	repo := NewMemoryChannelsRepository()
	ctx := context.Background()

	repo.TrackVideo("v1", "channel-1")
	repo.TrackVideo("v2", "channel-1")
	repo.TrackVideo("v3", "channel-2")

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	add := func(videoID string, views int64, offset time.Duration) {
		err := repo.AddVideoSnapshot(ctx, &domain.VideoSnapshot{
			VideoID:    videoID,
			Views:      views,
			CapturedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("add video snapshot: %v", err)
		}
	}
	add("v1", 10, 0)
	add("v1", 20, time.Hour)
	add("v2", 5, 0)
	add("v3", 99, 0)

	snapshots, err := repo.LatestVideoSnapshots(ctx, "channel-1")
	if err != nil {
		t.Fatalf("latest video snapshots: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected one row per channel video, got %d", len(snapshots))
	}
	for _, snapshot := range snapshots {
		if snapshot.VideoID == "v1" && snapshot.Views != 20 {
			t.Fatalf("expected newest v1 row, got views=%d", snapshot.Views)
		}
	}
}
