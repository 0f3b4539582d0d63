package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresJobsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresJobsRepository(pool *pgxpool.Pool) *PostgresJobsRepository {
	return &PostgresJobsRepository{pool: pool}
}

func (r *PostgresJobsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (
			id,
			kind,
			video_id,
			payload,
			status,
			error_message,
			attempts,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		job.ID,
		string(job.Kind),
		job.VideoID,
		job.Payload,
		string(job.Status),
		job.ErrorMessage,
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *PostgresJobsRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2,
			error_message = $3,
			attempts = $4,
			updated_at = $5
		WHERE id = $1
	`, job.ID, string(job.Status), job.ErrorMessage, job.Attempts, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var (
		job       domain.Job
		kind      string
		status    string
		payload   []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, video_id, payload, status, error_message, attempts, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID,
		&kind,
		&job.VideoID,
		&payload,
		&status,
		&job.ErrorMessage,
		&job.Attempts,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	job.Payload = json.RawMessage(payload)
	job.CreatedAt = createdAt
	job.UpdatedAt = updatedAt
	return &job, nil
}
