package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

// ErrCompetitorLimit is returned when a third competitor channel is added.
var ErrCompetitorLimit = errors.New("competitor channel limit reached")

const maxCompetitors = 2

// ChannelsRepository owns tracked channels and the append-only snapshot
// tables. Snapshot rows are never updated in place.
type ChannelsRepository interface {
	CreateChannel(ctx context.Context, channel *domain.Channel) error
	GetChannel(ctx context.Context, channelID string) (*domain.Channel, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	AddChannelSnapshot(ctx context.Context, snapshot *domain.ChannelSnapshot) error
	AddVideoSnapshot(ctx context.Context, snapshot *domain.VideoSnapshot) error
	LatestChannelSnapshot(ctx context.Context, channelID string) (*domain.ChannelSnapshot, error)
	LatestVideoSnapshot(ctx context.Context, videoID string) (*domain.VideoSnapshot, error)
	LatestVideoSnapshots(ctx context.Context, channelID string) ([]domain.VideoSnapshot, error)
}

// MemoryChannelsRepository backs local development and tests.
type MemoryChannelsRepository struct {
	mu            sync.RWMutex
	channels      map[string]*domain.Channel
	chanSnapshots []domain.ChannelSnapshot
	vidSnapshots  []domain.VideoSnapshot
	videoChannel  map[string]string
	snapshotSeq   int64
}

func NewMemoryChannelsRepository() *MemoryChannelsRepository {
	return &MemoryChannelsRepository{
		channels:     make(map[string]*domain.Channel),
		videoChannel: make(map[string]string),
	}
}

func (r *MemoryChannelsRepository) CreateChannel(_ context.Context, channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel.IsCompetitor {
		competitors := 0
		for _, existing := range r.channels {
			if existing.IsCompetitor {
				competitors++
			}
		}
		if competitors >= maxCompetitors {
			return ErrCompetitorLimit
		}
	}

	clone := *channel
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.channels[channel.ID] = &clone
	return nil
}

func (r *MemoryChannelsRepository) GetChannel(_ context.Context, channelID string) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel, ok := r.channels[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *channel
	return &clone, nil
}

func (r *MemoryChannelsRepository) ListChannels(_ context.Context) ([]domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]domain.Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		channels = append(channels, *channel)
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].CreatedAt.Before(channels[j].CreatedAt)
	})
	return channels, nil
}

func (r *MemoryChannelsRepository) DeleteChannel(_ context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channelID]; !ok {
		return ErrNotFound
	}
	delete(r.channels, channelID)
	return nil
}

func (r *MemoryChannelsRepository) AddChannelSnapshot(_ context.Context, snapshot *domain.ChannelSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshotSeq++
	clone := *snapshot
	clone.ID = r.snapshotSeq
	if clone.CapturedAt.IsZero() {
		clone.CapturedAt = time.Now().UTC()
	}
	r.chanSnapshots = append(r.chanSnapshots, clone)
	return nil
}

func (r *MemoryChannelsRepository) AddVideoSnapshot(_ context.Context, snapshot *domain.VideoSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshotSeq++
	clone := *snapshot
	clone.ID = r.snapshotSeq
	if clone.CapturedAt.IsZero() {
		clone.CapturedAt = time.Now().UTC()
	}
	r.vidSnapshots = append(r.vidSnapshots, clone)
	return nil
}

// TrackVideo records which channel a video belongs to so the memory
// implementation can answer LatestVideoSnapshots per channel.
func (r *MemoryChannelsRepository) TrackVideo(videoID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videoChannel[videoID] = channelID
}

func (r *MemoryChannelsRepository) LatestChannelSnapshot(
	_ context.Context,
	channelID string,
) (*domain.ChannelSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.ChannelSnapshot
	for i := range r.chanSnapshots {
		snapshot := r.chanSnapshots[i]
		if snapshot.ChannelID != channelID {
			continue
		}
		if latest == nil || snapshot.CapturedAt.After(latest.CapturedAt) {
			latest = &r.chanSnapshots[i]
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *MemoryChannelsRepository) LatestVideoSnapshot(
	_ context.Context,
	videoID string,
) (*domain.VideoSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.VideoSnapshot
	for i := range r.vidSnapshots {
		snapshot := r.vidSnapshots[i]
		if snapshot.VideoID != videoID {
			continue
		}
		if latest == nil || snapshot.CapturedAt.After(latest.CapturedAt) {
			latest = &r.vidSnapshots[i]
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *MemoryChannelsRepository) LatestVideoSnapshots(
	_ context.Context,
	channelID string,
) ([]domain.VideoSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latestByVideo := make(map[string]domain.VideoSnapshot)
	for _, snapshot := range r.vidSnapshots {
		if r.videoChannel[snapshot.VideoID] != channelID {
			continue
		}
		existing, ok := latestByVideo[snapshot.VideoID]
		if !ok || snapshot.CapturedAt.After(existing.CapturedAt) {
			latestByVideo[snapshot.VideoID] = snapshot
		}
	}

	snapshots := make([]domain.VideoSnapshot, 0, len(latestByVideo))
	for _, snapshot := range latestByVideo {
		snapshots = append(snapshots, snapshot)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].VideoID < snapshots[j].VideoID
	})
	return snapshots, nil
}
