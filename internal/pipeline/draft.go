package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

const draftSystemPrompt = "You are a social media copywriter. Write an engaging " +
	"LinkedIn post announcing a new video, based on the provided summary. Respond " +
	"with a TITLE: line followed by the post text. Keep the post under 1300 characters."

// DraftPost turns the stored summary into a LinkedIn-style draft and stores
// it with status draft, then hands the video to the notify stage. The video
// record is required; the summary is advisory. A generation failure falls
// back to a plain template, so a reviewable post always comes out of this
// stage.
func (t *Tasks) DraftPost(ctx context.Context, videoID string) error {
	exists, err := t.Posts.Exists(ctx, videoID)
	if err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if exists {
		t.Logger.Info("post already drafted, skipping draft stage",
			zap.String("video_id", videoID))
		return t.Queue.Enqueue(ctx, queue.StageNotify, videoID)
	}

	video, err := t.Videos.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Permanent(fmt.Errorf("no video record for %s", videoID))
		}
		return fmt.Errorf("load video: %w", err)
	}

	summary, err := t.Summaries.Get(ctx, videoID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load summary: %w", err)
		}
		summary = &models.Summary{VideoID: videoID}
	}

	videoURL := video.WatchURL()
	userPrompt := fmt.Sprintf(
		"Video title: %s\nVideo URL: %s\nVideo description: %s\n\nSummary:\n%s\n\nKey points:\n- %s",
		video.Title, videoURL, video.Description, summary.SummaryText,
		strings.Join(summary.KeyPoints, "\n- "))

	var title, content string
	response, err := t.Generator.Complete(ctx, draftSystemPrompt, userPrompt)
	if err != nil {
		t.Logger.Warn("draft generation failed, using template fallback",
			zap.String("video_id", videoID), zap.Error(err))
	} else {
		title, content = parseDraftResponse(response)
	}
	if title == "" || content == "" {
		title, content = fallbackDraft(video.Title, summary, videoURL)
	}
	content = ensureVideoURL(content, videoURL)

	post := &models.Post{
		VideoID:    videoID,
		Title:      title,
		Content:    content,
		Status:     models.StatusDraft,
		VideoTitle: video.Title,
		VideoURL:   videoURL,
	}
	if err := t.Posts.Upsert(ctx, post); err != nil {
		return fmt.Errorf("store post: %w", err)
	}

	t.Logger.Info("post drafted",
		zap.String("video_id", videoID),
		zap.String("title", title),
	)
	t.publishEvent(ctx, queue.StageDraft, videoID, "completed")

	return t.Queue.Enqueue(ctx, queue.StageNotify, videoID)
}
