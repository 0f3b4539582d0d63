package httpserver

import (
	"log"
	"net/http"

	"github.com/creatorpulse/creatorpulse-back/internal/http/handlers"
	"github.com/creatorpulse/creatorpulse-back/internal/http/middleware"
)

type RouterDependencies struct {
	API            *handlers.API
	Logger         *log.Logger
	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", deps.API.Health)
	mux.HandleFunc("/v1/comments/analysis", deps.API.CommentAnalysis)
	mux.HandleFunc("/v1/comments/classify", deps.API.CommentClassify)
	mux.HandleFunc("/v1/comments/filter", deps.API.CommentFilter)
	mux.HandleFunc("/v1/jobs/", deps.API.JobStatus)
	mux.HandleFunc("/v1/channels", deps.API.Channels)
	mux.HandleFunc("/v1/channels/", deps.API.ChannelScoped)
	mux.HandleFunc("/v1/videos/", deps.API.VideoScoped)

	handler := http.Handler(mux)
	handler = middleware.Auth(deps.AuthToken)(handler)
	handler = middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
