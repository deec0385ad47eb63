package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

// NotifyReviewer emails the reviewer that a draft is ready. This is the last
// stage of the chain. Missing video or post records are permanent failures;
// a delivery error is retryable.
func (t *Tasks) NotifyReviewer(ctx context.Context, videoID string) error {
	if _, err := t.Videos.Get(ctx, videoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Permanent(fmt.Errorf("no video record for %s", videoID))
		}
		return fmt.Errorf("load video: %w", err)
	}

	post, err := t.Posts.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Permanent(fmt.Errorf("no post for video %s", videoID))
		}
		return fmt.Errorf("load post: %w", err)
	}

	if err := t.Notifier.SendDraftNotification(ctx, post); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	t.Logger.Info("reviewer notified",
		zap.String("video_id", videoID),
		zap.String("post_title", post.Title),
	)
	t.publishEvent(ctx, queue.StageNotify, videoID, "completed")
	return nil
}
