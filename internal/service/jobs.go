package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/queue"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/google/uuid"
)

var ErrInvalidVideoID = errors.New("video_id is required")

// JobsService is the dispatcher and status reporter for comment jobs.
// Enqueue writes the job row first, then appends to the queue; a queue
// failure is surfaced synchronously and the row is marked failed, so no job
// is silently lost.
type JobsService struct {
	repo     repository.JobsRepository
	producer queue.Producer
}

func NewJobsService(repo repository.JobsRepository, producer queue.Producer) *JobsService {
	return &JobsService{repo: repo, producer: producer}
}

func (s *JobsService) EnqueueAnalysis(ctx context.Context, videoID string) (*domain.Job, error) {
	return s.enqueue(ctx, domain.JobKindAnalysis, videoID, nil)
}

func (s *JobsService) EnqueueClassify(ctx context.Context, videoID string) (*domain.Job, error) {
	return s.enqueue(ctx, domain.JobKindClassify, videoID, nil)
}

func (s *JobsService) EnqueueFilter(ctx context.Context, videoID, keyword string) (*domain.Job, error) {
	payload, err := json.Marshal(domain.FilterPayload{FilteringKeyword: keyword})
	if err != nil {
		return nil, fmt.Errorf("encode filter payload: %w", err)
	}
	return s.enqueue(ctx, domain.JobKindFilter, videoID, payload)
}

// GetJob reports the current lifecycle state of a job. It is a pure read
// and is safe to poll.
func (s *JobsService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

func (s *JobsService) enqueue(
	ctx context.Context,
	kind domain.JobKind,
	videoID string,
	payload json.RawMessage,
) (*domain.Job, error) {
	if videoID == "" {
		return nil, ErrInvalidVideoID
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		VideoID:   videoID,
		Payload:   payload,
		Status:    domain.JobStatusWaiting,
		Attempts:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	message := domain.QueueMessage{
		JobID:       job.ID,
		Kind:        kind,
		VideoID:     videoID,
		Payload:     payload,
		Attempt:     0,
		RequestedAt: now,
	}

	if err := s.producer.Enqueue(ctx, message); err != nil {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = err.Error()
		job.UpdatedAt = time.Now().UTC()
		_ = s.repo.UpdateJob(ctx, job)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}
