package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

// handleClassify sends the watermark to the workflow engine, upserts every
// returned comment with authoritative metadata from the Data API, and
// advances the watermark only when at least one comment was durably stored.
// Per-comment failures skip that comment; a workflow failure fails the job.
func (p *Processor) handleClassify(ctx context.Context, message domain.QueueMessage) error {
	video, err := p.ensureVideo(ctx, message.VideoID)
	if err != nil {
		return err
	}

	entries, err := p.classifier.Classify(ctx, message.VideoID, video.CommentClassifiedAt)
	if err != nil {
		return fmt.Errorf("classify video %s: %w", message.VideoID, err)
	}

	persisted, skipped := 0, 0
	for _, entry := range entries {
		metadata, err := p.metadata.CommentMetadata(ctx, entry.ID)
		if err != nil {
			skipped++
			if p.logger != nil {
				p.logger.Printf("classify metadata lookup failed comment_id=%s err=%v", entry.ID, err)
			}
			continue
		}

		record := &domain.CommentRecord{
			ExternalID:  entry.ID,
			VideoID:     message.VideoID,
			AuthorName:  metadata.AuthorName,
			AuthorID:    metadata.AuthorID,
			Text:        entry.Body(),
			Type:        domain.CommentType(entry.Type),
			PublishedAt: metadata.PublishedAt,
			IsTopLevel:  metadata.IsTopLevel,
		}
		if err := p.comments.UpsertComment(ctx, record); err != nil {
			skipped++
			if p.logger != nil {
				p.logger.Printf("classify upsert failed comment_id=%s err=%v", entry.ID, err)
			}
			continue
		}
		persisted++
	}

	// Leaving the watermark untouched on an empty run means the next run
	// re-requests the same window instead of losing it.
	if persisted > 0 {
		if err := p.comments.AdvanceCommentClassifiedAt(ctx, message.VideoID, time.Now().UTC()); err != nil {
			return fmt.Errorf("advance watermark: %w", err)
		}
	}

	if p.logger != nil {
		p.logger.Printf(
			"classify done video_id=%s persisted=%d skipped=%d",
			message.VideoID, persisted, skipped,
		)
	}
	return nil
}
