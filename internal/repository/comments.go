package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

// CommentsRepository owns videos, comment records and comment summaries.
// Comment writes are idempotent upserts keyed by the external comment id;
// summaries are append-only.
type CommentsRepository interface {
	GetVideo(ctx context.Context, videoID string) (*domain.Video, error)
	UpsertVideo(ctx context.Context, video *domain.Video) error
	ListVideosByChannel(ctx context.Context, channelID string) ([]domain.Video, error)
	CountUploadsSince(ctx context.Context, channelID string, since time.Time) (int, error)
	AdvanceCommentClassifiedAt(ctx context.Context, videoID string, classifiedAt time.Time) error

	UpsertComment(ctx context.Context, record *domain.CommentRecord) error
	SetCommentFiltered(ctx context.Context, externalID string, filtered bool) error
	ResetFiltered(ctx context.Context, videoID string) error
	CountCommentTypes(ctx context.Context, videoID string) (positive, negative int, err error)
	ListComments(ctx context.Context, videoID string, filtered *bool) ([]domain.CommentRecord, error)

	CreateSummary(ctx context.Context, summary *domain.CommentSummary) error
	ListSummaries(ctx context.Context, videoID string) ([]domain.CommentSummary, error)
}

// MemoryCommentsRepository backs local development and tests.
type MemoryCommentsRepository struct {
	mu         sync.RWMutex
	videos     map[string]*domain.Video
	comments   map[string]*domain.CommentRecord
	summaries  []domain.CommentSummary
	summarySeq int64
}

func NewMemoryCommentsRepository() *MemoryCommentsRepository {
	return &MemoryCommentsRepository{
		videos:   make(map[string]*domain.Video),
		comments: make(map[string]*domain.CommentRecord),
	}
}

func (r *MemoryCommentsRepository) GetVideo(_ context.Context, videoID string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, ok := r.videos[videoID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *video
	return &clone, nil
}

func (r *MemoryCommentsRepository) UpsertVideo(_ context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.videos[video.ID]; ok {
		existing.ChannelID = video.ChannelID
		existing.Name = video.Name
		existing.ThumbnailURL = video.ThumbnailURL
		existing.UploadDate = video.UploadDate
		return nil
	}
	clone := *video
	r.videos[video.ID] = &clone
	return nil
}

func (r *MemoryCommentsRepository) ListVideosByChannel(_ context.Context, channelID string) ([]domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	videos := make([]domain.Video, 0)
	for _, video := range r.videos {
		if video.ChannelID == channelID {
			videos = append(videos, *video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].UploadDate.After(videos[j].UploadDate)
	})
	return videos, nil
}

func (r *MemoryCommentsRepository) CountUploadsSince(_ context.Context, channelID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, video := range r.videos {
		if video.ChannelID == channelID && !video.UploadDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryCommentsRepository) AdvanceCommentClassifiedAt(
	_ context.Context,
	videoID string,
	classifiedAt time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[videoID]
	if !ok {
		return ErrNotFound
	}
	// The watermark only moves forward.
	if video.CommentClassifiedAt != nil && !video.CommentClassifiedAt.Before(classifiedAt) {
		return nil
	}
	video.CommentClassifiedAt = &classifiedAt
	return nil
}

func (r *MemoryCommentsRepository) UpsertComment(_ context.Context, record *domain.CommentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.comments[record.ExternalID]; ok {
		existing.AuthorName = record.AuthorName
		existing.AuthorID = record.AuthorID
		existing.Text = record.Text
		existing.Type = record.Type
		existing.PublishedAt = record.PublishedAt
		existing.IsTopLevel = record.IsTopLevel
		existing.UpdatedAt = now
		return nil
	}

	clone := *record
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.comments[record.ExternalID] = &clone
	return nil
}

func (r *MemoryCommentsRepository) SetCommentFiltered(_ context.Context, externalID string, filtered bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.comments[externalID]
	if !ok {
		return ErrNotFound
	}
	record.IsFiltered = filtered
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryCommentsRepository) ResetFiltered(_ context.Context, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.comments {
		if record.VideoID == videoID {
			record.IsFiltered = false
		}
	}
	return nil
}

func (r *MemoryCommentsRepository) CountCommentTypes(_ context.Context, videoID string) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	positive, negative := 0, 0
	for _, record := range r.comments {
		if record.VideoID != videoID || record.IsFiltered {
			continue
		}
		switch record.Type {
		case domain.CommentTypePositive:
			positive++
		case domain.CommentTypeNegative:
			negative++
		}
	}
	return positive, negative, nil
}

func (r *MemoryCommentsRepository) ListComments(
	_ context.Context,
	videoID string,
	filtered *bool,
) ([]domain.CommentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.CommentRecord, 0)
	for _, record := range r.comments {
		if record.VideoID != videoID {
			continue
		}
		if filtered != nil && record.IsFiltered != *filtered {
			continue
		}
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
	return records, nil
}

func (r *MemoryCommentsRepository) CreateSummary(_ context.Context, summary *domain.CommentSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summarySeq++
	clone := *summary
	clone.ID = r.summarySeq
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.summaries = append(r.summaries, clone)
	summary.ID = clone.ID
	return nil
}

func (r *MemoryCommentsRepository) ListSummaries(_ context.Context, videoID string) ([]domain.CommentSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.CommentSummary, 0)
	for _, summary := range r.summaries {
		if summary.VideoID == videoID {
			summaries = append(summaries, summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
