package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/thumblify/internal/api/middleware"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/service"
)

// ThumbnailHandler handles generation and deletion endpoints.
type ThumbnailHandler struct {
	generateService  *service.GenerateService
	thumbnailService *service.ThumbnailService
}

// NewThumbnailHandler creates a new thumbnail handler.
func NewThumbnailHandler(generateService *service.GenerateService, thumbnailService *service.ThumbnailService) *ThumbnailHandler {
	return &ThumbnailHandler{
		generateService:  generateService,
		thumbnailService: thumbnailService,
	}
}

type generateRequest struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspect_ratio"`
	ColorScheme string `json:"color_scheme"`
	TextOverlay bool   `json:"text_overlay"`
}

// Generate handles POST /api/thumbnail/generate. The response status follows
// the error classification: 400 for validation/provider bad request, 402 for
// quota, 429 for rate limiting, 500 for everything else.
func (h *ThumbnailHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user := middleware.CurrentUser(c)
	thumbnail, err := h.generateService.Generate(c.Request.Context(), user, service.GenerateInput{
		Title:       req.Title,
		Prompt:      req.Prompt,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		ColorScheme: req.ColorScheme,
		TextOverlay: req.TextOverlay,
	})
	if err != nil {
		var genErr *service.GenerationError
		if errors.As(err, &genErr) {
			if retry := genErr.RetryAfterSeconds(); retry > 0 {
				c.Header("Retry-After", strconv.Itoa(retry))
			}
			body := gin.H{"message": genErr.Message}
			if genErr.Thumbnail != nil {
				body["thumbnail"] = genErr.Thumbnail
			}
			c.JSON(genErr.HTTPStatus(), body)
			return
		}
		logger.CtxError(c.Request.Context(), "Unclassified generation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Thumbnail generated successfully",
		"thumbnail": thumbnail,
	})
}

// Delete handles DELETE /api/thumbnail/delete/:id. Missing and non-owned
// records both yield 404.
func (h *ThumbnailHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	user := middleware.CurrentUser(c)

	if err := h.thumbnailService.Delete(c.Request.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrThumbnailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Thumbnail not found"})
			return
		}
		logger.CtxError(c.Request.Context(), "Failed to delete thumbnail: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Thumbnail deleted successfully"})
}
