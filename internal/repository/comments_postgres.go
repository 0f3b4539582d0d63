package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresCommentsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCommentsRepository(pool *pgxpool.Pool) *PostgresCommentsRepository {
	return &PostgresCommentsRepository{pool: pool}
}

func (r *PostgresCommentsRepository) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	var video domain.Video
	err := r.pool.QueryRow(ctx, `
		SELECT id, channel_id, name, thumbnail_url, upload_date, comment_classified_at
		FROM videos
		WHERE id = $1
	`, videoID).Scan(
		&video.ID,
		&video.ChannelID,
		&video.Name,
		&video.ThumbnailURL,
		&video.UploadDate,
		&video.CommentClassifiedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query video: %w", err)
	}
	return &video, nil
}

func (r *PostgresCommentsRepository) UpsertVideo(ctx context.Context, video *domain.Video) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO videos (id, channel_id, name, thumbnail_url, upload_date)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET channel_id = EXCLUDED.channel_id,
			name = EXCLUDED.name,
			thumbnail_url = EXCLUDED.thumbnail_url,
			upload_date = EXCLUDED.upload_date
	`, video.ID, video.ChannelID, video.Name, video.ThumbnailURL, video.UploadDate)
	if err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}
	return nil
}

func (r *PostgresCommentsRepository) ListVideosByChannel(ctx context.Context, channelID string) ([]domain.Video, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_id, name, thumbnail_url, upload_date, comment_classified_at
		FROM videos
		WHERE channel_id = $1
		ORDER BY upload_date DESC
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]domain.Video, 0)
	for rows.Next() {
		var video domain.Video
		if err := rows.Scan(
			&video.ID,
			&video.ChannelID,
			&video.Name,
			&video.ThumbnailURL,
			&video.UploadDate,
			&video.CommentClassifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate videos: %w", rows.Err())
	}
	return videos, nil
}

func (r *PostgresCommentsRepository) CountUploadsSince(
	ctx context.Context,
	channelID string,
	since time.Time,
) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM videos WHERE channel_id = $1 AND upload_date >= $2
	`, channelID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count uploads: %w", err)
	}
	return count, nil
}

func (r *PostgresCommentsRepository) AdvanceCommentClassifiedAt(
	ctx context.Context,
	videoID string,
	classifiedAt time.Time,
) error {
	// Forward-only: concurrent runs can never move the watermark backwards.
	_, err := r.pool.Exec(ctx, `
		UPDATE videos
		SET comment_classified_at = $2
		WHERE id = $1
		  AND (comment_classified_at IS NULL OR comment_classified_at < $2)
	`, videoID, classifiedAt)
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}

func (r *PostgresCommentsRepository) UpsertComment(ctx context.Context, record *domain.CommentRecord) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (
			external_id,
			video_id,
			author_name,
			author_id,
			text,
			type,
			published_at,
			is_top_level,
			is_filtered,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false,$9,$9)
		ON CONFLICT (external_id) DO UPDATE
		SET author_name = EXCLUDED.author_name,
			author_id = EXCLUDED.author_id,
			text = EXCLUDED.text,
			type = EXCLUDED.type,
			published_at = EXCLUDED.published_at,
			is_top_level = EXCLUDED.is_top_level,
			updated_at = EXCLUDED.updated_at
	`,
		record.ExternalID,
		record.VideoID,
		record.AuthorName,
		record.AuthorID,
		record.Text,
		int(record.Type),
		record.PublishedAt,
		record.IsTopLevel,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert comment: %w", err)
	}
	return nil
}

func (r *PostgresCommentsRepository) SetCommentFiltered(
	ctx context.Context,
	externalID string,
	filtered bool,
) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE comments SET is_filtered = $2, updated_at = $3 WHERE external_id = $1
	`, externalID, filtered, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set comment filtered: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCommentsRepository) ResetFiltered(ctx context.Context, videoID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE comments SET is_filtered = false WHERE video_id = $1
	`, videoID)
	if err != nil {
		return fmt.Errorf("reset filtered: %w", err)
	}
	return nil
}

func (r *PostgresCommentsRepository) CountCommentTypes(ctx context.Context, videoID string) (int, int, error) {
	var positive, negative int
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE type = 1),
			COUNT(*) FILTER (WHERE type = 2)
		FROM comments
		WHERE video_id = $1 AND is_filtered = false
	`, videoID).Scan(&positive, &negative)
	if err != nil {
		return 0, 0, fmt.Errorf("count comment types: %w", err)
	}
	return positive, negative, nil
}

func (r *PostgresCommentsRepository) ListComments(
	ctx context.Context,
	videoID string,
	filtered *bool,
) ([]domain.CommentRecord, error) {
	query := `
		SELECT external_id, video_id, author_name, author_id, text, type,
		       published_at, is_top_level, is_filtered, created_at, updated_at
		FROM comments
		WHERE video_id = $1`
	args := []any{videoID}
	if filtered != nil {
		query += " AND is_filtered = $2"
		args = append(args, *filtered)
	}
	query += " ORDER BY published_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CommentRecord, 0)
	for rows.Next() {
		var (
			record      domain.CommentRecord
			commentType int
		)
		if err := rows.Scan(
			&record.ExternalID,
			&record.VideoID,
			&record.AuthorName,
			&record.AuthorID,
			&record.Text,
			&commentType,
			&record.PublishedAt,
			&record.IsTopLevel,
			&record.IsFiltered,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		record.Type = domain.CommentType(commentType)
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate comments: %w", rows.Err())
	}
	return records, nil
}

func (r *PostgresCommentsRepository) CreateSummary(ctx context.Context, summary *domain.CommentSummary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comment_summaries (video_id, title, summary, positive_ratio, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, summary.VideoID, summary.Title, summary.Summary, summary.PositiveRatio, summary.CreatedAt).Scan(&summary.ID)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *PostgresCommentsRepository) ListSummaries(
	ctx context.Context,
	videoID string,
) ([]domain.CommentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, video_id, title, summary, positive_ratio, created_at
		FROM comment_summaries
		WHERE video_id = $1
		ORDER BY created_at DESC
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.CommentSummary, 0)
	for rows.Next() {
		var summary domain.CommentSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.VideoID,
			&summary.Title,
			&summary.Summary,
			&summary.PositiveRatio,
			&summary.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate summaries: %w", rows.Err())
	}
	return summaries, nil
}
