package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/classifier"
	"github.com/creatorpulse/creatorpulse-back/internal/domain"
	"github.com/creatorpulse/creatorpulse-back/internal/queue"
	"github.com/creatorpulse/creatorpulse-back/internal/repository"
	"github.com/creatorpulse/creatorpulse-back/internal/youtube"
)

type fakeClassifier struct {
	analyzeFn  func(ctx context.Context, videoID string) (classifier.AnalysisResult, error)
	classifyFn func(ctx context.Context, videoID string, classifiedAt *time.Time) ([]classifier.ClassifiedComment, error)
	filterFn   func(ctx context.Context, videoID, keyword string) ([]classifier.FilteredComment, error)
}

func (f *fakeClassifier) Analyze(ctx context.Context, videoID string) (classifier.AnalysisResult, error) {
	if f.analyzeFn == nil {
		return classifier.AnalysisResult{}, errors.New("analyze not configured")
	}
	return f.analyzeFn(ctx, videoID)
}

func (f *fakeClassifier) Classify(
	ctx context.Context,
	videoID string,
	classifiedAt *time.Time,
) ([]classifier.ClassifiedComment, error) {
	if f.classifyFn == nil {
		return nil, errors.New("classify not configured")
	}
	return f.classifyFn(ctx, videoID, classifiedAt)
}

func (f *fakeClassifier) Filter(ctx context.Context, videoID, keyword string) ([]classifier.FilteredComment, error) {
	if f.filterFn == nil {
		return nil, errors.New("filter not configured")
	}
	return f.filterFn(ctx, videoID, keyword)
}

type fakeMetadata struct {
	commentFn func(ctx context.Context, commentID string) (youtube.CommentMetadata, error)
	videoFn   func(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

func (f *fakeMetadata) CommentMetadata(ctx context.Context, commentID string) (youtube.CommentMetadata, error) {
	if f.commentFn == nil {
		return youtube.CommentMetadata{AuthorName: "author", AuthorID: "author-id", PublishedAt: time.Now().UTC()}, nil
	}
	return f.commentFn(ctx, commentID)
}

func (f *fakeMetadata) VideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error) {
	if f.videoFn == nil {
		return youtube.VideoInfo{ID: videoID, ChannelID: "channel-1", Title: "video"}, nil
	}
	return f.videoFn(ctx, videoID)
}

type processorFixture struct {
	processor *Processor
	jobs      *repository.MemoryJobsRepository
	comments  *repository.MemoryCommentsRepository
}

func newProcessorFixture(t *testing.T, cls *fakeClassifier, metadata *fakeMetadata) processorFixture {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	jobs := repository.NewMemoryJobsRepository()
	comments := repository.NewMemoryCommentsRepository()
	local := queue.NewLocalQueue(64, 3, logger)
	processor := NewProcessor(local, jobs, comments, cls, metadata, 3, logger)
	return processorFixture{processor: processor, jobs: jobs, comments: comments}
}

func seedJob(t *testing.T, repo *repository.MemoryJobsRepository, kind domain.JobKind, videoID string, payload json.RawMessage) domain.QueueMessage {
	t.Helper()

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        "job-" + string(kind) + "-" + videoID,
		Kind:      kind,
		VideoID:   videoID,
		Payload:   payload,
		Status:    domain.JobStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return domain.QueueMessage{
		JobID:       job.ID,
		Kind:        kind,
		VideoID:     videoID,
		Payload:     payload,
		RequestedAt: now,
	}
}

func TestAnalysisWithoutCommentsStoresNilRatio(t *testing.T) {
	cls := &fakeClassifier{
		analyzeFn: func(_ context.Context, _ string) (classifier.AnalysisResult, error) {
			return classifier.AnalysisResult{
				Title:   "summary title",
				Payload: json.RawMessage(`{"summary_title":"summary title","summary":"body"}`),
			}, nil
		},
	}
	fixture := newProcessorFixture(t, cls, &fakeMetadata{})

	message := seedJob(t, fixture.jobs, domain.JobKindAnalysis, "video-1", nil)
	if err := fixture.processor.processMessage(context.Background(), message); err != nil {
		t.Fatalf("process analysis: %v", err)
	}

	job, err := fixture.jobs.GetJob(context.Background(), message.JobID)
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", job.Status)
	}

	summaries, err := fixture.comments.ListSummaries(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	if summaries[0].PositiveRatio != nil {
		t.Fatalf("expected nil ratio with no typed comments, got %v", *summaries[0].PositiveRatio)
	}
	if summaries[0].Title != "summary title" {
		t.Fatalf("unexpected summary title %q", summaries[0].Title)
	}
}

func TestAnalysisRatioFromStoredComments(t *testing.T) {
	cls := &fakeClassifier{
		analyzeFn: func(_ context.Context, _ string) (classifier.AnalysisResult, error) {
			return classifier.AnalysisResult{Title: "t", Payload: json.RawMessage(`{}`)}, nil
		},
	}
	fixture := newProcessorFixture(t, cls, &fakeMetadata{})

	ctx := context.Background()
	seedComment := func(id string, commentType domain.CommentType) {
		err := fixture.comments.UpsertComment(ctx, &domain.CommentRecord{
			ExternalID:  id,
			VideoID:     "video-1",
			Text:        "text",
			Type:        commentType,
			PublishedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed comment: %v", err)
		}
	}
	seedComment("c1", domain.CommentTypePositive)
	seedComment("c2", domain.CommentTypePositive)
	seedComment("c3", domain.CommentTypeNegative)
	seedComment("c4", domain.CommentTypeNeutral)

	message := seedJob(t, fixture.jobs, domain.JobKindAnalysis, "video-1", nil)
	if err := fixture.processor.processMessage(ctx, message); err != nil {
		t.Fatalf("process analysis: %v", err)
	}

	summaries, _ := fixture.comments.ListSummaries(ctx, "video-1")
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	if summaries[0].PositiveRatio == nil {
		t.Fatalf("expected ratio, got nil")
	}
	// 2 positive / 3 typed comments, neutral excluded.
	if got := *summaries[0].PositiveRatio; got != 66.7 {
		t.Fatalf("expected ratio 66.7, got %v", got)
	}
}

func TestClassifyPersistsCommentsAndAdvancesWatermark(t *testing.T) {
	var receivedWatermark *time.Time
	cls := &fakeClassifier{
		classifyFn: func(_ context.Context, _ string, classifiedAt *time.Time) ([]classifier.ClassifiedComment, error) {
			receivedWatermark = classifiedAt
			return []classifier.ClassifiedComment{
				{ID: "c1", Text: "great video", Type: int(domain.CommentTypePositive)},
				{ID: "c2", Comment: "bad take", Type: int(domain.CommentTypeNegative)},
			}, nil
		},
	}
	fixture := newProcessorFixture(t, cls, &fakeMetadata{})

	ctx := context.Background()
	message := seedJob(t, fixture.jobs, domain.JobKindClassify, "video-1", nil)
	if err := fixture.processor.processMessage(ctx, message); err != nil {
		t.Fatalf("process classify: %v", err)
	}

	if receivedWatermark != nil {
		t.Fatalf("expected nil watermark on first run, got %v", receivedWatermark)
	}

	records, err := fixture.comments.ListComments(ctx, "video-1", nil)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two stored comments, got %d", len(records))
	}
	for _, record := range records {
		if record.AuthorName == "" {
			t.Fatalf("expected metadata-filled author for %s", record.ExternalID)
		}
	}

	video, err := fixture.comments.GetVideo(ctx, "video-1")
	if err != nil {
		t.Fatalf("load video: %v", err)
	}
	if video.CommentClassifiedAt == nil {
		t.Fatalf("expected watermark to advance after persisted comments")
	}

	// Re-running with the same ids must not duplicate rows.
	rerun := seedJob(t, fixture.jobs, domain.JobKindClassify, "video-1", json.RawMessage(nil))
	rerun.JobID = message.JobID
	if err := fixture.processor.processMessage(ctx, rerun); err != nil {
		t.Fatalf("re-run classify: %v", err)
	}
	records, _ = fixture.comments.ListComments(ctx, "video-1", nil)
	if len(records) != 2 {
		t.Fatalf("expected upsert to stay at two comments, got %d", len(records))
	}
}

func TestClassifyMetadataFailureSkipsAndKeepsWatermark(t *testing.T) {
	cls := &fakeClassifier{
		classifyFn: func(_ context.Context, _ string, _ *time.Time) ([]classifier.ClassifiedComment, error) {
			return []classifier.ClassifiedComment{
				{ID: "c1", Text: "text", Type: int(domain.CommentTypePositive)},
			}, nil
		},
	}
	metadata := &fakeMetadata{
		commentFn: func(_ context.Context, _ string) (youtube.CommentMetadata, error) {
			return youtube.CommentMetadata{}, errors.New("quota exceeded")
		},
	}
	fixture := newProcessorFixture(t, cls, metadata)

	ctx := context.Background()
	message := seedJob(t, fixture.jobs, domain.JobKindClassify, "video-1", nil)
	if err := fixture.processor.processMessage(ctx, message); err != nil {
		t.Fatalf("expected skip-and-continue, got %v", err)
	}

	job, _ := fixture.jobs.GetJob(ctx, message.JobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed job despite skipped items, got %s", job.Status)
	}

	records, _ := fixture.comments.ListComments(ctx, "video-1", nil)
	if len(records) != 0 {
		t.Fatalf("expected no stored comments, got %d", len(records))
	}

	video, _ := fixture.comments.GetVideo(ctx, "video-1")
	if video.CommentClassifiedAt != nil {
		t.Fatalf("watermark must not advance when nothing was persisted")
	}
}

func TestClassifyEngineFailureFailsJob(t *testing.T) {
	cls := &fakeClassifier{
		classifyFn: func(_ context.Context, _ string, _ *time.Time) ([]classifier.ClassifiedComment, error) {
			return nil, errors.New("workflow engine unavailable")
		},
	}
	fixture := newProcessorFixture(t, cls, &fakeMetadata{})

	ctx := context.Background()
	message := seedJob(t, fixture.jobs, domain.JobKindClassify, "video-1", nil)
	if err := fixture.processor.processMessage(ctx, message); err == nil {
		t.Fatalf("expected error from engine failure")
	}

	job, _ := fixture.jobs.GetJob(ctx, message.JobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
	if job.ErrorMessage == "" {
		t.Fatalf("expected error message on failed job")
	}
}

func TestFilterResetsUpdatesAndInserts(t *testing.T) {
	cls := &fakeClassifier{
		filterFn: func(_ context.Context, _ string, keyword string) ([]classifier.FilteredComment, error) {
			if keyword != "spam" {
				return nil, errors.New("unexpected keyword " + keyword)
			}
			return []classifier.FilteredComment{
				{ID: "c1", Text: "spam link", IsFiltered: true},
				{ID: "c-new", Text: "fresh spam", IsFiltered: true},
				{ID: "c2", Text: "fine comment", IsFiltered: false},
			}, nil
		},
	}
	fixture := newProcessorFixture(t, cls, &fakeMetadata{})

	ctx := context.Background()
	seed := func(id string, filtered bool) {
		err := fixture.comments.UpsertComment(ctx, &domain.CommentRecord{
			ExternalID:  id,
			VideoID:     "video-1",
			Text:        "text",
			Type:        domain.CommentTypeNeutral,
			PublishedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed comment: %v", err)
		}
		if filtered {
			if err := fixture.comments.SetCommentFiltered(ctx, id, true); err != nil {
				t.Fatalf("seed filter flag: %v", err)
			}
		}
	}
	seed("c1", false)
	seed("c2", true) // stale flag from an earlier keyword, must be reset
	seed("c3", true) // not mentioned by the engine, must end unfiltered

	payload, _ := json.Marshal(domain.FilterPayload{FilteringKeyword: "spam"})
	message := seedJob(t, fixture.jobs, domain.JobKindFilter, "video-1", payload)
	if err := fixture.processor.processMessage(ctx, message); err != nil {
		t.Fatalf("process filter: %v", err)
	}

	filteredTrue := true
	flagged, err := fixture.comments.ListComments(ctx, "video-1", &filteredTrue)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(flagged) != 2 {
		t.Fatalf("expected two filtered comments, got %d", len(flagged))
	}
	flaggedIDs := map[string]bool{}
	for _, record := range flagged {
		flaggedIDs[record.ExternalID] = true
	}
	if !flaggedIDs["c1"] || !flaggedIDs["c-new"] {
		t.Fatalf("unexpected filtered set %v", flaggedIDs)
	}

	all, _ := fixture.comments.ListComments(ctx, "video-1", nil)
	if len(all) != 4 {
		t.Fatalf("expected four comments after insert, got %d", len(all))
	}
	for _, record := range all {
		if record.ExternalID == "c-new" && record.Type != domain.CommentTypeNeutral {
			t.Fatalf("inserted comment must be neutral, got %d", record.Type)
		}
	}
}

func TestUnknownJobKindFails(t *testing.T) {
	fixture := newProcessorFixture(t, &fakeClassifier{}, &fakeMetadata{})

	message := seedJob(t, fixture.jobs, domain.JobKind("reindex"), "video-1", nil)
	if err := fixture.processor.processMessage(context.Background(), message); err == nil {
		t.Fatalf("expected unsupported kind error")
	}

	job, _ := fixture.jobs.GetJob(context.Background(), message.JobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
}

func TestVideoMissingOnYouTubeFailsJob(t *testing.T) {
	metadata := &fakeMetadata{
		videoFn: func(_ context.Context, _ string) (youtube.VideoInfo, error) {
			return youtube.VideoInfo{}, youtube.ErrNotFound
		},
	}
	fixture := newProcessorFixture(t, &fakeClassifier{}, metadata)

	message := seedJob(t, fixture.jobs, domain.JobKindAnalysis, "missing-video", nil)
	if err := fixture.processor.processMessage(context.Background(), message); err == nil {
		t.Fatalf("expected failure for unknown video")
	}

	job, _ := fixture.jobs.GetJob(context.Background(), message.JobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
}

func TestProcessorBoundsConcurrentJobs(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	cls := &fakeClassifier{
		analyzeFn: func(_ context.Context, _ string) (classifier.AnalysisResult, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(50 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return classifier.AnalysisResult{Title: "t", Payload: json.RawMessage(`{}`)}, nil
		},
	}

	logger := log.New(io.Discard, "", 0)
	jobs := repository.NewMemoryJobsRepository()
	comments := repository.NewMemoryCommentsRepository()
	local := queue.NewLocalQueue(64, 3, logger)
	processor := NewProcessor(local, jobs, comments, cls, &fakeMetadata{}, 3, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go processor.Start(ctx)

	const jobCount = 9
	for i := 0; i < jobCount; i++ {
		videoID := "video-" + string(rune('a'+i))
		message := seedJob(t, jobs, domain.JobKindAnalysis, videoID, nil)
		if err := local.Enqueue(ctx, message); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		completed := 0
		for i := 0; i < jobCount; i++ {
			videoID := "video-" + string(rune('a'+i))
			job, err := jobs.GetJob(ctx, "job-analysis-"+videoID)
			if err == nil && job.Status == domain.JobStatusCompleted {
				completed++
			}
		}
		if completed == jobCount {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("jobs did not complete, %d/%d done", completed, jobCount)
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight > 3 {
		t.Fatalf("expected at most 3 jobs in flight, saw %d", maxInFlight)
	}
	if maxInFlight < 2 {
		t.Logf("low observed parallelism: %d", maxInFlight)
	}
}
