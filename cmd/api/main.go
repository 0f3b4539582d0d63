package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/creatorpulse/creatorpulse-back/internal/cache"
	"github.com/creatorpulse/creatorpulse-back/internal/classifier"
	"github.com/creatorpulse/creatorpulse-back/internal/config"
	httpserver "github.com/creatorpulse/creatorpulse-back/internal/http"
	"github.com/creatorpulse/creatorpulse-back/internal/http/handlers"
	"github.com/creatorpulse/creatorpulse-back/internal/queue"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/service"
	"github.com/creatorpulse/creatorpulse-back/internal/worker"
	"github.com/creatorpulse/creatorpulse-back/internal/youtube"
)

func main() {
	logger := log.New(os.Stdout, "[cp-back] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobsRepo, commentsRepo, channelsRepo, repoCloser := setupRepositories(ctx, cfg, logger)
	defer repoCloser()

	producer, consumer, queueCloser := setupQueue(ctx, cfg, logger)
	defer queueCloser()

	youtubeClient := youtube.NewClient(youtube.ClientConfig{
		APIKey:            cfg.YouTubeAPIKey,
		BaseURL:           cfg.YouTubeBaseURL,
		Timeout:           time.Duration(cfg.YouTubeTimeoutMS) * time.Millisecond,
		RequestsPerSecond: cfg.YouTubeRPS,
		Burst:             cfg.YouTubeBurst,
	})
	classifierClient := classifier.NewClient(classifier.ClientConfig{
		BaseURL: cfg.ClassifierBaseURL,
		Token:   cfg.ClassifierToken,
		Timeout: time.Duration(cfg.ClassifierTimeoutMS) * time.Millisecond,
	})

	statsCache := cache.NewStatsCache(
		setupRedisCache(cfg),
		time.Duration(cfg.StatsCacheTTLSeconds)*time.Second,
		logger,
	)

	jobsService := service.NewJobsService(jobsRepo, producer)
	channelsService := service.NewChannelsService(channelsRepo, youtubeClient, logger)
	statsService := service.NewStatsService(channelsRepo, commentsRepo, statsCache, logger)
	api := handlers.NewAPI(jobsService, channelsService, statsService, commentsRepo)

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.WorkerEnabled {
		processor := worker.NewProcessor(
			consumer,
			jobsRepo,
			commentsRepo,
			classifierClient,
			youtubeClient,
			cfg.WorkerConcurrency,
			logger,
		)
		go processor.Start(ctx)
		logger.Printf("worker enabled concurrency=%d", cfg.WorkerConcurrency)
	} else {
		logger.Printf("worker disabled by configuration")
	}

	if cfg.SnapshotEnabled {
		collector := worker.NewSnapshotCollector(
			channelsRepo,
			commentsRepo,
			youtubeClient,
			time.Duration(cfg.SnapshotIntervalMinutes)*time.Minute,
			logger,
		)
		go collector.Start(ctx)
		logger.Printf("snapshot collector enabled interval_minutes=%d", cfg.SnapshotIntervalMinutes)
	} else {
		logger.Printf("snapshot collector disabled by configuration")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupRepositories(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.JobsRepository, repository.CommentsRepository, repository.ChannelsRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repositories")
		return repository.NewMemoryJobsRepository(),
			repository.NewMemoryCommentsRepository(),
			repository.NewMemoryChannelsRepository(),
			func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		logger.Printf("failed to initialize postgres pool, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository(),
			repository.NewMemoryCommentsRepository(),
			repository.NewMemoryChannelsRepository(),
			func() {}
	}

	logger.Printf("postgres repositories initialized")
	return repository.NewPostgresJobsRepository(pool),
		repository.NewPostgresCommentsRepository(pool),
		repository.NewPostgresChannelsRepository(pool),
		pool.Close
}

func setupQueue(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (queue.Producer, queue.Consumer, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using local queue fallback")
		local := queue.NewLocalQueue(512, 3, logger)
		return local, local, func() {}
	}

	streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		Stream:      cfg.RedisStream,
		DLQStream:   cfg.RedisDLQ,
		Group:       cfg.RedisGroup,
		Consumer:    cfg.RedisConsumer,
		MaxAttempts: 3,
	})
	if err != nil {
		logger.Printf("failed to initialize redis streams queue, fallback to local: %v", err)
		local := queue.NewLocalQueue(512, 3, logger)
		return local, local, func() {}
	}

	logger.Printf("redis streams queue initialized")
	return streams, streams, func() {
		_ = streams.Close()
	}
}

func setupRedisCache(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
