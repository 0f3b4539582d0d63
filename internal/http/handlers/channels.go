package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/repository"
)

func (api *API) Channels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		api.registerChannel(w, r)
	case http.MethodGet:
		api.listChannels(w, r)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (api *API) registerChannel(w http.ResponseWriter, r *http.Request) {
	var request channelRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(request.ChannelID) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "channel_id is required")
		return
	}

	channel, err := api.channelsService.Register(r.Context(), request.ChannelID, request.IsCompetitor)
	if err != nil {
		if errors.Is(err, repository.ErrCompetitorLimit) {
			writeError(w, r, http.StatusConflict, "competitor_limit", "at most two competitor channels can be tracked")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to register channel")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"channel": map[string]any{
			"channel_id":    channel.ID,
			"title":         channel.Title,
			"thumbnail_url": channel.ThumbnailURL,
			"is_competitor": channel.IsCompetitor,
			"created_at":    channel.CreatedAt.Format(time.RFC3339),
		},
	})
}

func (api *API) listChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := api.channelsService.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list channels")
		return
	}

	items := make([]map[string]any, 0, len(channels))
	for _, channel := range channels {
		items = append(items, map[string]any{
			"channel_id":    channel.ID,
			"title":         channel.Title,
			"thumbnail_url": channel.ThumbnailURL,
			"is_competitor": channel.IsCompetitor,
			"created_at":    channel.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "channels": items})
}

// ChannelScoped handles /v1/channels/{channel_id} and
// /v1/channels/{channel_id}/stats.
func (api *API) ChannelScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/channels/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodDelete {
			writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		api.deleteChannel(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "stats":
		if r.Method != http.MethodGet {
			writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		api.channelStats(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "unknown channel route")
	}
}

func (api *API) deleteChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	if err := api.channelsService.Delete(r.Context(), channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "channel not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to delete channel")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (api *API) channelStats(w http.ResponseWriter, r *http.Request, channelID string) {
	stats, err := api.statsService.ChannelStats(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "no snapshots for channel")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load channel stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}
