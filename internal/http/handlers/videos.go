package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/repository"
)

// VideoScoped handles /v1/videos/{video_id}/{comments|summaries|stats}.
func (api *API) VideoScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/videos/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "not_found", "unknown video route")
		return
	}
	videoID := parts[0]

	switch parts[1] {
	case "comments":
		api.videoComments(w, r, videoID)
	case "summaries":
		api.videoSummaries(w, r, videoID)
	case "stats":
		api.videoStats(w, r, videoID)
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "unknown video route")
	}
}

func (api *API) videoComments(w http.ResponseWriter, r *http.Request, videoID string) {
	var filtered *bool
	if raw := strings.TrimSpace(r.URL.Query().Get("filtered")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "filtered must be true or false")
			return
		}
		filtered = &parsed
	}

	records, err := api.comments.ListComments(r.Context(), videoID, filtered)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list comments")
		return
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		items = append(items, map[string]any{
			"id":           record.ExternalID,
			"author_name":  record.AuthorName,
			"author_id":    record.AuthorID,
			"text":         record.Text,
			"comment_type": int(record.Type),
			"published_at": record.PublishedAt.Format(time.RFC3339),
			"is_top_level": record.IsTopLevel,
			"is_filtered":  record.IsFiltered,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "comments": items})
}

func (api *API) videoSummaries(w http.ResponseWriter, r *http.Request, videoID string) {
	summaries, err := api.comments.ListSummaries(r.Context(), videoID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list summaries")
		return
	}

	items := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		item := map[string]any{
			"id":             summary.ID,
			"title":          summary.Title,
			"summary":        summary.Summary,
			"positive_ratio": summary.PositiveRatio,
			"created_at":     summary.CreatedAt.Format(time.RFC3339Nano),
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summaries": items})
}

func (api *API) videoStats(w http.ResponseWriter, r *http.Request, videoID string) {
	snapshot, err := api.statsService.VideoStats(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "no snapshots for video")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load video stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"video_id":    snapshot.VideoID,
			"views":       snapshot.Views,
			"likes":       snapshot.Likes,
			"dislikes":    snapshot.Dislikes,
			"comments":    snapshot.Comments,
			"captured_at": snapshot.CapturedAt.Format(time.RFC3339),
		},
	})
}
