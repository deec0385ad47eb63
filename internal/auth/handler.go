package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/response"
	"github.com/vidscribe/backend/pkg/utils"
)

// ReviewerRepo abstracts account storage for the handler.
type ReviewerRepo interface {
	Create(ctx context.Context, email, passwordHash, fullName, role string) (*Reviewer, error)
	GetByEmail(ctx context.Context, email string) (*Reviewer, error)
}

// Handler serves registration and login.
type Handler struct {
	repo   ReviewerRepo
	jwt    *JWTService
	logger *zap.Logger
}

func NewHandler(repo ReviewerRepo, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// RegisterRoutes mounts the auth endpoints on the group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token    string    `json:"token"`
	Reviewer *Reviewer `json:"reviewer"`
}

// Register creates a reviewer account and returns a token.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Conflict(c, "email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("reviewer lookup failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	reviewer, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, "reviewer")
	if err != nil {
		h.logger.Error("reviewer create failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	token, err := h.jwt.GenerateToken(reviewer.ID, reviewer.Email, reviewer.Role)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	response.Created(c, authResponse{Token: token, Reviewer: reviewer})
}

// Login verifies credentials and returns a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reviewer, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		h.logger.Error("reviewer lookup failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}

	if !utils.CheckPassword(req.Password, reviewer.PasswordHash) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(reviewer.ID, reviewer.Email, reviewer.Role)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}

	response.OK(c, authResponse{Token: token, Reviewer: reviewer})
}
