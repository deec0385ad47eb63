package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

// ExtractTranscript fetches and stores the caption track for the video, then
// hands the video to the summarize stage. Re-entry with an existing
// transcript skips the fetch and only re-enqueues the next stage, so
// duplicate deliveries converge. A video without captions is terminal but
// not an error: it is marked processed and leaves the pipeline.
func (t *Tasks) ExtractTranscript(ctx context.Context, videoID string) error {
	if _, err := t.Videos.Get(ctx, videoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Permanent(fmt.Errorf("no video record for %s", videoID))
		}
		return fmt.Errorf("load video: %w", err)
	}

	exists, err := t.Transcripts.Exists(ctx, videoID)
	if err != nil {
		return fmt.Errorf("check transcript: %w", err)
	}
	if exists {
		t.Logger.Info("transcript already stored, skipping extraction",
			zap.String("video_id", videoID))
		return t.Queue.Enqueue(ctx, queue.StageSummarize, videoID)
	}

	segments, language, err := t.Source.Fetch(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTranscriptUnavailable) {
			return t.finishUnavailable(ctx, videoID)
		}
		return fmt.Errorf("fetch transcript: %w", err)
	}
	if len(segments) == 0 {
		return t.finishUnavailable(ctx, videoID)
	}

	transcript := &models.Transcript{
		VideoID:  videoID,
		Segments: segments,
		Language: language,
	}
	transcript.SortSegments()

	if err := t.Transcripts.Upsert(ctx, transcript); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	if err := t.Videos.MarkProcessed(ctx, videoID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	t.Logger.Info("transcript extracted",
		zap.String("video_id", videoID),
		zap.String("language", language),
		zap.Int("segments", len(segments)),
	)
	t.publishEvent(ctx, queue.StageExtract, videoID, "completed")

	return t.Queue.Enqueue(ctx, queue.StageSummarize, videoID)
}

// finishUnavailable ends the chain for a captionless video.
func (t *Tasks) finishUnavailable(ctx context.Context, videoID string) error {
	t.Logger.Info("transcript unavailable, video leaves the pipeline",
		zap.String("video_id", videoID))
	if err := t.Videos.MarkProcessed(ctx, videoID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	t.publishEvent(ctx, queue.StageExtract, videoID, "unavailable")
	return nil
}
