package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresChannelsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresChannelsRepository(pool *pgxpool.Pool) *PostgresChannelsRepository {
	return &PostgresChannelsRepository{pool: pool}
}

func (r *PostgresChannelsRepository) CreateChannel(ctx context.Context, channel *domain.Channel) error {
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = time.Now().UTC()
	}

	if channel.IsCompetitor {
		var competitors int
		err := r.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM channels WHERE is_competitor = true
		`).Scan(&competitors)
		if err != nil {
			return fmt.Errorf("count competitors: %w", err)
		}
		if competitors >= maxCompetitors {
			return ErrCompetitorLimit
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO channels (id, title, thumbnail_url, is_competitor, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			thumbnail_url = EXCLUDED.thumbnail_url
	`, channel.ID, channel.Title, channel.ThumbnailURL, channel.IsCompetitor, channel.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *PostgresChannelsRepository) GetChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	var channel domain.Channel
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, thumbnail_url, is_competitor, created_at
		FROM channels
		WHERE id = $1
	`, channelID).Scan(
		&channel.ID,
		&channel.Title,
		&channel.ThumbnailURL,
		&channel.IsCompetitor,
		&channel.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query channel: %w", err)
	}
	return &channel, nil
}

func (r *PostgresChannelsRepository) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, thumbnail_url, is_competitor, created_at
		FROM channels
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]domain.Channel, 0)
	for rows.Next() {
		var channel domain.Channel
		if err := rows.Scan(
			&channel.ID,
			&channel.Title,
			&channel.ThumbnailURL,
			&channel.IsCompetitor,
			&channel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate channels: %w", rows.Err())
	}
	return channels, nil
}

func (r *PostgresChannelsRepository) DeleteChannel(ctx context.Context, channelID string) error {
	command, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresChannelsRepository) AddChannelSnapshot(
	ctx context.Context,
	snapshot *domain.ChannelSnapshot,
) error {
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO channel_snapshots (channel_id, subscribers, views, video_count, captured_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, snapshot.ChannelID, snapshot.Subscribers, snapshot.Views, snapshot.VideoCount, snapshot.CapturedAt).
		Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("insert channel snapshot: %w", err)
	}
	return nil
}

func (r *PostgresChannelsRepository) AddVideoSnapshot(
	ctx context.Context,
	snapshot *domain.VideoSnapshot,
) error {
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO video_snapshots (video_id, views, likes, dislikes, comments, captured_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, snapshot.VideoID, snapshot.Views, snapshot.Likes, snapshot.Dislikes, snapshot.Comments, snapshot.CapturedAt).
		Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("insert video snapshot: %w", err)
	}
	return nil
}

func (r *PostgresChannelsRepository) LatestChannelSnapshot(
	ctx context.Context,
	channelID string,
) (*domain.ChannelSnapshot, error) {
	var snapshot domain.ChannelSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, channel_id, subscribers, views, video_count, captured_at
		FROM channel_snapshots
		WHERE channel_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`, channelID).Scan(
		&snapshot.ID,
		&snapshot.ChannelID,
		&snapshot.Subscribers,
		&snapshot.Views,
		&snapshot.VideoCount,
		&snapshot.CapturedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query channel snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *PostgresChannelsRepository) LatestVideoSnapshot(
	ctx context.Context,
	videoID string,
) (*domain.VideoSnapshot, error) {
	var snapshot domain.VideoSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, video_id, views, likes, dislikes, comments, captured_at
		FROM video_snapshots
		WHERE video_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`, videoID).Scan(
		&snapshot.ID,
		&snapshot.VideoID,
		&snapshot.Views,
		&snapshot.Likes,
		&snapshot.Dislikes,
		&snapshot.Comments,
		&snapshot.CapturedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query video snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *PostgresChannelsRepository) LatestVideoSnapshots(
	ctx context.Context,
	channelID string,
) ([]domain.VideoSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (vs.video_id)
			vs.id, vs.video_id, vs.views, vs.likes, vs.dislikes, vs.comments, vs.captured_at
		FROM video_snapshots vs
		JOIN videos v ON v.id = vs.video_id
		WHERE v.channel_id = $1
		ORDER BY vs.video_id, vs.captured_at DESC
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list video snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.VideoSnapshot, 0)
	for rows.Next() {
		var snapshot domain.VideoSnapshot
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.VideoID,
			&snapshot.Views,
			&snapshot.Likes,
			&snapshot.Dislikes,
			&snapshot.Comments,
			&snapshot.CapturedAt,
		); err != nil {
			return nil, fmt.Errorf("scan video snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate video snapshots: %w", rows.Err())
	}
	return snapshots, nil
}
