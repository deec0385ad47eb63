package videos

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
	"github.com/vidscribe/backend/pkg/response"
)

// VideoStore abstracts video persistence for the handler.
type VideoStore interface {
	Get(ctx context.Context, videoID string) (*models.Video, error)
	List(ctx context.Context, limit int) ([]models.Video, error)
	Upsert(ctx context.Context, v *models.Video) error
}

// Enqueuer hands videos to the pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, stage queue.Stage, videoID string) error
}

// Handler serves video listing and manual pipeline triggers.
type Handler struct {
	store  VideoStore
	queue  Enqueuer
	logger *zap.Logger
}

func NewHandler(store VideoStore, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, queue: q, logger: logger}
}

// RegisterRoutes mounts the video endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/videos", h.List)
	rg.GET("/videos/:id", h.Get)
}

// RegisterWebhooks mounts the trigger endpoint.
func (h *Handler) RegisterWebhooks(rg *gin.RouterGroup) {
	rg.POST("/webhooks/videos", h.Trigger)
}

// List returns the most recently published videos.
func (h *Handler) List(c *gin.Context) {
	videos, err := h.store.List(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("list videos failed", zap.Error(err))
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, videos)
}

// Get returns one video by ID.
func (h *Handler) Get(c *gin.Context) {
	video, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		h.logger.Error("get video failed", zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	response.OK(c, video)
}

type triggerRequest struct {
	VideoID      string    `json:"video_id" binding:"required"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
	Description  string    `json:"description"`
}

// Trigger feeds a video into the extract stage, upserting its record first.
// Stages skip work already done, so re-triggering a processed video only
// redoes what is missing. Duplicate deliveries are safe.
func (h *Handler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	video := &models.Video{
		VideoID:      req.VideoID,
		Title:        req.Title,
		ChannelID:    req.ChannelID,
		ChannelTitle: req.ChannelTitle,
		PublishedAt:  req.PublishedAt,
		Description:  req.Description,
	}
	if existing, err := h.store.Get(c.Request.Context(), req.VideoID); err == nil {
		// Keep stored metadata when the trigger carries none.
		if video.Title == "" {
			video.Title = existing.Title
		}
		if video.ChannelID == "" {
			video.ChannelID = existing.ChannelID
		}
		if video.ChannelTitle == "" {
			video.ChannelTitle = existing.ChannelTitle
		}
		if video.PublishedAt.IsZero() {
			video.PublishedAt = existing.PublishedAt
		}
		if video.Description == "" {
			video.Description = existing.Description
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("get video failed", zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	if video.PublishedAt.IsZero() {
		video.PublishedAt = time.Now().UTC()
	}

	if err := h.store.Upsert(c.Request.Context(), video); err != nil {
		h.logger.Error("upsert video failed", zap.Error(err))
		response.Internal(c, "failed to store video")
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), queue.StageExtract, req.VideoID); err != nil {
		h.logger.Error("enqueue failed", zap.Error(err))
		response.Internal(c, "failed to queue video")
		return
	}

	h.logger.Info("video re-queued", zap.String("video_id", req.VideoID))
	response.Accepted(c, gin.H{"video_id": req.VideoID, "stage": string(queue.StageExtract)})
}
