package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
)

// handleFilter re-evaluates the filter flag for every comment of a video
// from scratch: reset all flags, then apply the workflow verdicts. Comments
// the workflow mentions but the store has never seen are inserted as neutral
// records with metadata from the Data API.
func (p *Processor) handleFilter(ctx context.Context, message domain.QueueMessage) error {
	if _, err := p.ensureVideo(ctx, message.VideoID); err != nil {
		return err
	}

	var payload domain.FilterPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("decode filter payload: %w", err)
		}
	}

	if err := p.comments.ResetFiltered(ctx, message.VideoID); err != nil {
		return fmt.Errorf("reset filter flags: %w", err)
	}

	entries, err := p.classifier.Filter(ctx, message.VideoID, payload.FilteringKeyword)
	if err != nil {
		return fmt.Errorf("filter video %s: %w", message.VideoID, err)
	}

	updated, inserted, skipped := 0, 0, 0
	for _, entry := range entries {
		err := p.comments.SetCommentFiltered(ctx, entry.ID, entry.IsFiltered)
		if err == nil {
			updated++
			continue
		}
		if err != repository.ErrNotFound {
			skipped++
			if p.logger != nil {
				p.logger.Printf("filter update failed comment_id=%s err=%v", entry.ID, err)
			}
			continue
		}

		metadata, err := p.metadata.CommentMetadata(ctx, entry.ID)
		if err != nil {
			skipped++
			if p.logger != nil {
				p.logger.Printf("filter metadata lookup failed comment_id=%s err=%v", entry.ID, err)
			}
			continue
		}

		record := &domain.CommentRecord{
			ExternalID:  entry.ID,
			VideoID:     message.VideoID,
			AuthorName:  metadata.AuthorName,
			AuthorID:    metadata.AuthorID,
			Text:        entry.Text,
			Type:        domain.CommentTypeNeutral,
			PublishedAt: metadata.PublishedAt,
			IsTopLevel:  metadata.IsTopLevel,
		}
		if err := p.comments.UpsertComment(ctx, record); err != nil {
			skipped++
			if p.logger != nil {
				p.logger.Printf("filter insert failed comment_id=%s err=%v", entry.ID, err)
			}
			continue
		}
		if entry.IsFiltered {
			if err := p.comments.SetCommentFiltered(ctx, entry.ID, true); err != nil && p.logger != nil {
				p.logger.Printf("filter flag write failed comment_id=%s err=%v", entry.ID, err)
			}
		}
		inserted++
	}

	if p.logger != nil {
		p.logger.Printf(
			"filter done video_id=%s keyword=%q updated=%d inserted=%d skipped=%d",
			message.VideoID, payload.FilteringKeyword, updated, inserted, skipped,
		)
	}
	return nil
}
