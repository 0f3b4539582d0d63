package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/service"
)

// CommentAnalysis enqueues an analysis job and returns the handle without
// waiting for execution.
func (api *API) CommentAnalysis(w http.ResponseWriter, r *http.Request) {
	api.enqueueJob(w, r, func(ctx context.Context, request jobRequest) (*domain.Job, error) {
		return api.jobsService.EnqueueAnalysis(ctx, request.VideoID)
	})
}

// CommentClassify enqueues a classify job.
func (api *API) CommentClassify(w http.ResponseWriter, r *http.Request) {
	api.enqueueJob(w, r, func(ctx context.Context, request jobRequest) (*domain.Job, error) {
		return api.jobsService.EnqueueClassify(ctx, request.VideoID)
	})
}

// CommentFilter enqueues a filter job with the filtering keyword.
func (api *API) CommentFilter(w http.ResponseWriter, r *http.Request) {
	api.enqueueJob(w, r, func(ctx context.Context, request jobRequest) (*domain.Job, error) {
		return api.jobsService.EnqueueFilter(ctx, request.VideoID, request.FilteringKeyword)
	})
}

func (api *API) enqueueJob(
	w http.ResponseWriter,
	r *http.Request,
	enqueue func(context.Context, jobRequest) (*domain.Job, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request jobRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(request.VideoID) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "video_id is required")
		return
	}

	job, err := enqueue(r.Context(), request)
	if err != nil {
		if errors.Is(err, service.ErrInvalidVideoID) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "video_id is required")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "enqueue_failed", "failed to enqueue job, retry later")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
	})
}

// JobStatus reports the lifecycle state of a job. Routed as
// /v1/jobs/{video_id}/{job_id}.
func (api *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "video_id and job_id are required")
		return
	}
	videoID, jobID := parts[0], parts[1]

	job, err := api.jobsService.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}
	if job.VideoID != videoID {
		writeError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"status":   job.Status,
		"job_id":   job.ID,
		"video_id": job.VideoID,
	})
}
