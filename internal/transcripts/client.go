package transcripts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/pipeline"
)

const requestTimeout = 30 * time.Second

// Client fetches caption tracks from a transcript API service.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a transcript client. language is the preferred caption
// language code.
func NewClient(baseURL, language string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if language == "" {
		language = "en"
	}
	return &Client{
		baseURL:    baseURL,
		language:   language,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

type transcriptPayload struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Segments []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		Duration float64 `json:"duration"`
	} `json:"segments"`
}

// Fetch returns the caption segments and language for the video. A 404 from
// the service means the video has no captions and maps to the terminal
// unavailable error; other failures are transient.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, string, error) {
	endpoint := fmt.Sprintf("%s/transcripts/%s?lang=%s",
		c.baseURL, url.PathEscape(videoID), url.QueryEscape(c.language))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.logger.Info("no transcript available", zap.String("video_id", videoID))
		return nil, "", pipeline.ErrTranscriptUnavailable
	default:
		return nil, "", fmt.Errorf("transcript service status %d", resp.StatusCode)
	}

	var payload transcriptPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode transcript: %w", err)
	}
	if len(payload.Segments) == 0 {
		return nil, "", pipeline.ErrTranscriptUnavailable
	}

	segments := make([]models.TranscriptSegment, 0, len(payload.Segments))
	for _, s := range payload.Segments {
		segments = append(segments, models.TranscriptSegment{
			Text:     s.Text,
			Start:    s.Start,
			Duration: s.Duration,
		})
	}
	language := payload.Language
	if language == "" {
		language = c.language
	}
	return segments, language, nil
}
