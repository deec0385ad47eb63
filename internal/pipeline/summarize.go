package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

const summarizeSystemPrompt = "You are an assistant that summarizes video transcripts. " +
	"Respond with a SUMMARY: section containing a concise paragraph, followed by a " +
	"KEY POINTS: section containing 5 to 7 bullet points."

// SummarizeTranscript runs the stored transcript through the model and
// stores the resulting summary, then hands the video to the draft stage.
// A missing transcript is a permanent failure: retrying cannot create one.
func (t *Tasks) SummarizeTranscript(ctx context.Context, videoID string) error {
	exists, err := t.Summaries.Exists(ctx, videoID)
	if err != nil {
		return fmt.Errorf("check summary: %w", err)
	}
	if exists {
		t.Logger.Info("summary already stored, skipping summarization",
			zap.String("video_id", videoID))
		return t.Queue.Enqueue(ctx, queue.StageDraft, videoID)
	}

	transcript, err := t.Transcripts.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Permanent(fmt.Errorf("no transcript for video %s", videoID))
		}
		return fmt.Errorf("load transcript: %w", err)
	}

	text := truncateTranscript(transcript.FullText())
	userPrompt := fmt.Sprintf("Summarize this video transcript:\n\n%s", text)

	response, err := t.Generator.Complete(ctx, summarizeSystemPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}

	summaryText, keyPoints := parseSummaryResponse(response)
	summary := &models.Summary{
		VideoID:     videoID,
		SummaryText: summaryText,
		KeyPoints:   keyPoints,
		ModelUsed:   t.Generator.ModelName(),
	}
	if err := t.Summaries.Upsert(ctx, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	t.Logger.Info("summary generated",
		zap.String("video_id", videoID),
		zap.String("model", summary.ModelUsed),
		zap.Int("key_points", len(keyPoints)),
	)
	t.publishEvent(ctx, queue.StageSummarize, videoID, "completed")

	return t.Queue.Enqueue(ctx, queue.StageDraft, videoID)
}
