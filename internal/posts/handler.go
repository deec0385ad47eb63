package posts

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/middleware"
	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/response"
)

// PostStore abstracts post persistence for the handler.
type PostStore interface {
	Get(ctx context.Context, videoID string) (*models.Post, error)
	List(ctx context.Context, status models.PostStatus, limit int) ([]models.Post, error)
	Upsert(ctx context.Context, p *models.Post) error
}

// Publisher pushes a reviewed post to the social platform and returns the
// public URL of the published post.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post) (string, error)
}

// Handler serves the post review and publish endpoints.
type Handler struct {
	store     PostStore
	publisher Publisher
	logger    *zap.Logger
}

func NewHandler(store PostStore, publisher Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, publisher: publisher, logger: logger}
}

// RegisterRoutes mounts the post endpoints on the group. The group is
// expected to carry JWT auth; publishing additionally requires a reviewer
// or admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts", h.List)
	rg.GET("/posts/:id", h.Get)
	rg.PUT("/posts/:id", h.Review)
	rg.POST("/posts/:id/publish", middleware.RequireRole("reviewer", "admin"), h.Publish)
}

// List returns posts newest first, optionally filtered with ?status=.
func (h *Handler) List(c *gin.Context) {
	status := models.PostStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.BadRequest(c, "unknown status: "+string(status))
		return
	}

	posts, err := h.store.List(c.Request.Context(), status, 100)
	if err != nil {
		h.logger.Error("list posts failed", zap.Error(err))
		response.Internal(c, "failed to list posts")
		return
	}
	response.OK(c, posts)
}

// Get returns a single post by video ID.
func (h *Handler) Get(c *gin.Context) {
	post, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		response.Internal(c, "failed to load post")
		return
	}
	response.OK(c, post)
}

type reviewRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Review applies the reviewer's edits and marks the post reviewed. The
// reviewer identity comes from the access token.
func (h *Handler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		response.Internal(c, "failed to load post")
		return
	}

	post.UpdateContent(req.Title, req.Content)
	if !post.MarkReviewed(c.GetString(middleware.CtxEmail)) {
		response.Conflict(c, "post cannot be reviewed from status "+string(post.Status))
		return
	}

	if err := h.store.Upsert(c.Request.Context(), post); err != nil {
		h.logger.Error("save reviewed post failed", zap.Error(err))
		response.Internal(c, "failed to save post")
		return
	}

	h.logger.Info("post reviewed",
		zap.String("video_id", post.VideoID),
		zap.String("reviewed_by", post.ReviewedBy),
	)
	response.OK(c, post)
}

// Publish pushes a reviewed post to the platform. Only reviewed posts can
// be published; a rejected publish marks the post failed.
func (h *Handler) Publish(c *gin.Context) {
	post, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		response.Internal(c, "failed to load post")
		return
	}

	if post.Status != models.StatusReviewed {
		response.Conflict(c, "only reviewed posts can be published, current status: "+string(post.Status))
		return
	}

	url, err := h.publisher.Publish(c.Request.Context(), post)
	if err != nil {
		h.logger.Error("publish failed",
			zap.String("video_id", post.VideoID), zap.Error(err))
		post.MarkFailed()
		if serr := h.store.Upsert(c.Request.Context(), post); serr != nil {
			h.logger.Error("save failed post failed", zap.Error(serr))
		}
		response.BadGateway(c, "publishing failed")
		return
	}

	post.MarkPublished(url)
	if err := h.store.Upsert(c.Request.Context(), post); err != nil {
		h.logger.Error("save published post failed", zap.Error(err))
		response.Internal(c, "published but failed to save post state")
		return
	}

	h.logger.Info("post published",
		zap.String("video_id", post.VideoID),
		zap.String("url", url),
	)
	response.OK(c, post)
}
