package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/youtube"
)

// ChannelDirectory resolves channel titles and counters at registration time.
type ChannelDirectory interface {
	ChannelInfo(ctx context.Context, channelID string) (youtube.ChannelInfo, error)
}

// ChannelsService manages the tracked channel set: the owner channel plus up
// to two competitors. Registration fetches the channel snippet so list
// responses carry a human-readable title without further API calls.
type ChannelsService struct {
	repo      repository.ChannelsRepository
	directory ChannelDirectory
	logger    *log.Logger
}

func NewChannelsService(
	repo repository.ChannelsRepository,
	directory ChannelDirectory,
	logger *log.Logger,
) *ChannelsService {
	return &ChannelsService{repo: repo, directory: directory, logger: logger}
}

func (s *ChannelsService) Register(
	ctx context.Context,
	channelID string,
	isCompetitor bool,
) (*domain.Channel, error) {
	info, err := s.directory.ChannelInfo(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", channelID, err)
	}

	channel := &domain.Channel{
		ID:           channelID,
		Title:        info.Title,
		ThumbnailURL: info.ThumbnailURL,
		IsCompetitor: isCompetitor,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}

	// Seed the snapshot tables immediately so stats reads work before the
	// first collector tick.
	snapshot := &domain.ChannelSnapshot{
		ChannelID:   channelID,
		Subscribers: info.Subscribers,
		Views:       info.Views,
		VideoCount:  info.VideoCount,
		CapturedAt:  time.Now().UTC(),
	}
	if err := s.repo.AddChannelSnapshot(ctx, snapshot); err != nil && s.logger != nil {
		s.logger.Printf("seed snapshot failed channel_id=%s err=%v", channelID, err)
	}

	return channel, nil
}

func (s *ChannelsService) List(ctx context.Context) ([]domain.Channel, error) {
	return s.repo.ListChannels(ctx)
}

func (s *ChannelsService) Delete(ctx context.Context, channelID string) error {
	return s.repo.DeleteChannel(ctx, channelID)
}
