package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
)

// LinkedInPublisher is a stand-in for the LinkedIn share API. It accepts
// every post and returns a deterministic feed URL. Swapping in the real API
// client only requires implementing the same Publish signature.
type LinkedInPublisher struct {
	logger *zap.Logger
}

func NewLinkedInPublisher(logger *zap.Logger) *LinkedInPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkedInPublisher{logger: logger}
}

// Publish returns the public URL of the published post.
func (p *LinkedInPublisher) Publish(_ context.Context, post *models.Post) (string, error) {
	url := fmt.Sprintf("https://www.linkedin.com/feed/update/mock-%s", post.VideoID)
	p.logger.Info("post published to linkedin",
		zap.String("video_id", post.VideoID),
		zap.String("url", url),
	)
	return url, nil
}
