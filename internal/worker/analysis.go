package worker

import (
	"context"
	"fmt"
	"math"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

// handleAnalysis asks the workflow engine for a narrative summary and pairs
// it with a positive ratio recomputed from locally stored comments. The two
// facts are intentionally decoupled: the ratio never comes from the remote
// response. Every run appends a new summary row.
func (p *Processor) handleAnalysis(ctx context.Context, message domain.QueueMessage) error {
	if _, err := p.ensureVideo(ctx, message.VideoID); err != nil {
		return err
	}

	result, err := p.classifier.Analyze(ctx, message.VideoID)
	if err != nil {
		return fmt.Errorf("analyze video %s: %w", message.VideoID, err)
	}

	positive, negative, err := p.comments.CountCommentTypes(ctx, message.VideoID)
	if err != nil {
		return fmt.Errorf("count comment types: %w", err)
	}

	summary := &domain.CommentSummary{
		VideoID:       message.VideoID,
		Title:         result.Title,
		Summary:       string(result.Payload),
		PositiveRatio: positiveRatio(positive, negative),
	}
	if err := p.comments.CreateSummary(ctx, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

// positiveRatio returns positive/(positive+negative) as a percentage with
// one decimal, or nil when no typed comments exist.
func positiveRatio(positive, negative int) *float64 {
	total := positive + negative
	if total == 0 {
		return nil
	}
	ratio := math.Round(float64(positive)/float64(total)*1000) / 10
	return &ratio
}
