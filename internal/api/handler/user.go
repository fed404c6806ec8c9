package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/thumblify/internal/api/middleware"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/service"
)

// UserHandler handles the per-user thumbnail read endpoints.
type UserHandler struct {
	thumbnailService *service.ThumbnailService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(thumbnailService *service.ThumbnailService) *UserHandler {
	return &UserHandler{thumbnailService: thumbnailService}
}

// ListThumbnails handles GET /api/user/thumbnails.
func (h *UserHandler) ListThumbnails(c *gin.Context) {
	user := middleware.CurrentUser(c)

	thumbnails, err := h.thumbnailService.List(c.Request.Context(), user)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list thumbnails: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list thumbnails"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"thumbnails": thumbnails})
}

// GetThumbnail handles GET /api/user/thumbnail/:id. A missing or non-owned
// record yields a null thumbnail, matching the polling client's contract.
func (h *UserHandler) GetThumbnail(c *gin.Context) {
	id := c.Param("id")
	user := middleware.CurrentUser(c)

	thumbnail, err := h.thumbnailService.GetByID(c.Request.Context(), user, id)
	if err != nil {
		if errors.Is(err, service.ErrThumbnailNotFound) {
			c.JSON(http.StatusOK, gin.H{"thumbnail": nil})
			return
		}
		logger.CtxError(c.Request.Context(), "Failed to get thumbnail: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get thumbnail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"thumbnail": thumbnail})
}
