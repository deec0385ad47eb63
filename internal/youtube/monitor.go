package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

const (
	requestTimeout = 30 * time.Second
	maxResults     = 10
)

// VideoStore is the subset of the video repository the monitor needs.
type VideoStore interface {
	Get(ctx context.Context, videoID string) (*models.Video, error)
	Upsert(ctx context.Context, v *models.Video) error
}

// Enqueuer hands newly discovered videos to the pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, stage queue.Stage, videoID string) error
}

// Monitor polls a YouTube channel for new uploads and feeds them into the
// extract stage.
type Monitor struct {
	apiKey     string
	channelID  string
	baseURL    string
	interval   time.Duration
	store      VideoStore
	queue      Enqueuer
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMonitor(apiKey, channelID, baseURL string, interval time.Duration,
	store VideoStore, q Enqueuer, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	return &Monitor{
		apiKey:     apiKey,
		channelID:  channelID,
		baseURL:    baseURL,
		interval:   interval,
		store:      store,
		queue:      q,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. The first check runs immediately.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("channel monitor started",
		zap.String("channel_id", m.channelID),
		zap.Duration("interval", m.interval),
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if n, err := m.CheckOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("channel check failed", zap.Error(err))
		} else if n > 0 {
			m.logger.Info("new videos queued", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckOnce fetches the channel's latest uploads, stores them, and enqueues
// extraction for videos not seen before. Returns how many new videos were
// queued.
func (m *Monitor) CheckOnce(ctx context.Context) (int, error) {
	videos, err := m.fetchLatest(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for i := range videos {
		v := &videos[i]
		_, err := m.store.Get(ctx, v.VideoID)
		isNew := errors.Is(err, store.ErrNotFound)
		if err != nil && !isNew {
			return queued, fmt.Errorf("lookup video %s: %w", v.VideoID, err)
		}

		if err := m.store.Upsert(ctx, v); err != nil {
			return queued, fmt.Errorf("store video %s: %w", v.VideoID, err)
		}
		if !isNew {
			continue
		}

		if err := m.queue.Enqueue(ctx, queue.StageExtract, v.VideoID); err != nil {
			return queued, fmt.Errorf("enqueue video %s: %w", v.VideoID, err)
		}
		m.logger.Info("discovered new video",
			zap.String("video_id", v.VideoID),
			zap.String("title", v.Title),
		)
		queued++
	}
	return queued, nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelID    string    `json:"channelId"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (m *Monitor) fetchLatest(ctx context.Context) ([]models.Video, error) {
	params := url.Values{}
	params.Set("key", m.apiKey)
	params.Set("channelId", m.channelID)
	params.Set("part", "snippet")
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	endpoint := m.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("youtube api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api status %d", resp.StatusCode)
	}

	videos := make([]models.Video, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, models.Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			Description:  item.Snippet.Description,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
		})
	}
	return videos, nil
}
