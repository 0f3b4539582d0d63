package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/classifier"
	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/queue"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/youtube"
)

const defaultConcurrency = 3

// Classifier is the external workflow engine boundary.
type Classifier interface {
	Analyze(ctx context.Context, videoID string) (classifier.AnalysisResult, error)
	Classify(ctx context.Context, videoID string, classifiedAt *time.Time) ([]classifier.ClassifiedComment, error)
	Filter(ctx context.Context, videoID, keyword string) ([]classifier.FilteredComment, error)
}

// MetadataSource is the authoritative read boundary for comment and video
// metadata.
type MetadataSource interface {
	CommentMetadata(ctx context.Context, commentID string) (youtube.CommentMetadata, error)
	VideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

// Processor claims comment jobs from the queue with bounded concurrency and
// drives each one through waiting → active → completed|failed. A failure in
// one job never touches concurrently running jobs; the Processor itself
// never retries, that policy belongs to the queue backend.
type Processor struct {
	consumer    queue.Consumer
	jobs        repository.JobsRepository
	comments    repository.CommentsRepository
	classifier  Classifier
	metadata    MetadataSource
	concurrency int
	logger      *log.Logger

	// Classify and filter runs for the same video are serialized so two
	// concurrent jobs cannot race on the classification watermark.
	locksMu    sync.Mutex
	videoLocks map[string]*sync.Mutex
}

func NewProcessor(
	consumer queue.Consumer,
	jobs repository.JobsRepository,
	comments repository.CommentsRepository,
	workflowClassifier Classifier,
	metadata MetadataSource,
	concurrency int,
	logger *log.Logger,
) *Processor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Processor{
		consumer:    consumer,
		jobs:        jobs,
		comments:    comments,
		classifier:  workflowClassifier,
		metadata:    metadata,
		concurrency: concurrency,
		logger:      logger,
		videoLocks:  make(map[string]*sync.Mutex),
	}
}

// Start runs the worker pool until the context is cancelled. Each slot is an
// independent consume loop; a broken loop restarts after a short pause.
func (p *Processor) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for slot := 0; slot < p.concurrency; slot++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.consumeLoop(ctx)
		}()
	}
	wg.Wait()
}

func (p *Processor) consumeLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumer.Consume(ctx, p.processMessage)
		if err == nil || ctx.Err() != nil {
			return
		}
		if p.logger != nil {
			p.logger.Printf("worker consume loop error: %v", err)
		}

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Processor) processMessage(ctx context.Context, message domain.QueueMessage) error {
	job, err := p.jobs.GetJob(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}

	job.Status = domain.JobStatusActive
	job.Attempts = message.Attempt + 1
	job.UpdatedAt = time.Now().UTC()
	if err := p.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark active: %w", err)
	}

	if processErr := p.handle(ctx, message); processErr != nil {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = processErr.Error()
		job.UpdatedAt = time.Now().UTC()
		_ = p.jobs.UpdateJob(ctx, job)
		return processErr
	}

	job.Status = domain.JobStatusCompleted
	job.ErrorMessage = ""
	job.UpdatedAt = time.Now().UTC()
	if err := p.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if p.logger != nil {
		p.logger.Printf("job processed kind=%s job_id=%s video_id=%s", job.Kind, job.ID, job.VideoID)
	}

	return nil
}

func (p *Processor) handle(ctx context.Context, message domain.QueueMessage) error {
	switch message.Kind {
	case domain.JobKindAnalysis:
		return p.handleAnalysis(ctx, message)
	case domain.JobKindClassify:
		unlock := p.lockVideo(message.VideoID)
		defer unlock()
		return p.handleClassify(ctx, message)
	case domain.JobKindFilter:
		unlock := p.lockVideo(message.VideoID)
		defer unlock()
		return p.handleFilter(ctx, message)
	default:
		return fmt.Errorf("unsupported job kind: %s", message.Kind)
	}
}

func (p *Processor) lockVideo(videoID string) func() {
	p.locksMu.Lock()
	lock, ok := p.videoLocks[videoID]
	if !ok {
		lock = &sync.Mutex{}
		p.videoLocks[videoID] = lock
	}
	p.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ensureVideo loads the tracked video row, creating it from the Data API on
// first sight. A video that does not exist on YouTube fails the job here;
// the dispatcher deliberately skips that validation.
func (p *Processor) ensureVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	video, err := p.comments.GetVideo(ctx, videoID)
	if err == nil {
		return video, nil
	}
	if err != repository.ErrNotFound {
		return nil, fmt.Errorf("load video %s: %w", videoID, err)
	}

	info, err := p.metadata.VideoInfo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("resolve video %s: %w", videoID, err)
	}

	video = &domain.Video{
		ID:           info.ID,
		ChannelID:    info.ChannelID,
		Name:         info.Title,
		ThumbnailURL: info.ThumbnailURL,
		UploadDate:   info.PublishedAt,
	}
	if err := p.comments.UpsertVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("store video %s: %w", videoID, err)
	}
	return video, nil
}
