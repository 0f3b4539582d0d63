package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creatorpulse/creatorpulse-back/internal/http/middleware"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/service"
)

var errInvalidPayload = errors.New("invalid payload")

type API struct {
	jobsService     *service.JobsService
	channelsService *service.ChannelsService
	statsService    *service.StatsService
	comments        repository.CommentsRepository
}

func NewAPI(
	jobsService *service.JobsService,
	channelsService *service.ChannelsService,
	statsService *service.StatsService,
	comments repository.CommentsRepository,
) *API {
	return &API{
		jobsService:     jobsService,
		channelsService: channelsService,
		statsService:    statsService,
		comments:        comments,
	}
}

type jobRequest struct {
	VideoID          string `json:"video_id"`
	FilteringKeyword string `json:"filtering_keyword,omitempty"`
}

type channelRequest struct {
	ChannelID    string `json:"channel_id"`
	IsCompetitor bool   `json:"is_competitor"`
}

type errorPayload struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}
