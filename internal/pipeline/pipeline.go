package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/pkg/queue"
)

// permanentError wraps failures that retrying cannot fix, such as a missing
// prerequisite record or a video with captions disabled. Jobs failing
// permanently go straight to the dead-letter queue.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// VideoStore is the subset of the video repository the pipeline needs.
type VideoStore interface {
	Get(ctx context.Context, videoID string) (*models.Video, error)
	MarkProcessed(ctx context.Context, videoID string, at time.Time) error
}

// TranscriptStore reads and writes transcripts.
type TranscriptStore interface {
	Get(ctx context.Context, videoID string) (*models.Transcript, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	Upsert(ctx context.Context, t *models.Transcript) error
}

// SummaryStore reads and writes summaries.
type SummaryStore interface {
	Get(ctx context.Context, videoID string) (*models.Summary, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	Upsert(ctx context.Context, s *models.Summary) error
}

// PostStore reads and writes drafted posts.
type PostStore interface {
	Get(ctx context.Context, videoID string) (*models.Post, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	Upsert(ctx context.Context, p *models.Post) error
}

// Enqueuer hands a video to the next stage.
type Enqueuer interface {
	Enqueue(ctx context.Context, stage queue.Stage, videoID string) error
}

// TranscriptSource fetches the caption track for a video. Implementations
// return ErrTranscriptUnavailable when the video has no captions at all.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, string, error)
}

// ErrTranscriptUnavailable means the video has captions disabled or none
// exist in any language. This is terminal for the video.
var ErrTranscriptUnavailable = errors.New("transcript unavailable for video")

// Generator produces chat completions.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	ModelName() string
}

// Notifier delivers the draft-ready email to the reviewer.
type Notifier interface {
	SendDraftNotification(ctx context.Context, post *models.Post) error
}

// EventPublisher broadcasts stage progress for live subscribers. Failures
// are logged and never fail the stage.
type EventPublisher interface {
	PublishStageEvent(ctx context.Context, stage queue.Stage, videoID, status string)
}

// Tasks bundles the four stage handlers with their shared dependencies.
type Tasks struct {
	Videos      VideoStore
	Transcripts TranscriptStore
	Summaries   SummaryStore
	Posts       PostStore
	Queue       Enqueuer
	Source      TranscriptSource
	Generator   Generator
	Notifier    Notifier
	Events      EventPublisher
	BaseURL     string
	Logger      *zap.Logger
}

// NewTasks wires the stage handlers. Events may be nil.
func NewTasks(t Tasks) *Tasks {
	if t.Logger == nil {
		t.Logger = zap.NewNop()
	}
	if t.Events == nil {
		t.Events = nopEvents{}
	}
	return &t
}

type nopEvents struct{}

func (nopEvents) PublishStageEvent(context.Context, queue.Stage, string, string) {}

func (t *Tasks) publishEvent(ctx context.Context, stage queue.Stage, videoID, status string) {
	t.Events.PublishStageEvent(ctx, stage, videoID, status)
}

// Run dispatches a job to its stage handler.
func (t *Tasks) Run(ctx context.Context, job *queue.Job) error {
	switch job.Stage {
	case queue.StageExtract:
		return t.ExtractTranscript(ctx, job.VideoID)
	case queue.StageSummarize:
		return t.SummarizeTranscript(ctx, job.VideoID)
	case queue.StageDraft:
		return t.DraftPost(ctx, job.VideoID)
	case queue.StageNotify:
		return t.NotifyReviewer(ctx, job.VideoID)
	}
	return Permanent(errors.New("unknown stage: " + string(job.Stage)))
}
