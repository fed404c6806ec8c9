package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/thumblify/internal/api/handler"
	"github.com/timmy/thumblify/internal/api/middleware"
	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/config"
	"github.com/timmy/thumblify/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	authService *auth.Service,
	generateService *service.GenerateService,
	thumbnailService *service.ThumbnailService,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	secureCookie := cfg.Mode == "release"
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService, secureCookie)
	thumbnailHandler := handler.NewThumbnailHandler(generateService, thumbnailService)
	userHandler := handler.NewUserHandler(thumbnailService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Auth
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", middleware.RequireAuth(authService), authHandler.Me)
	}

	// Thumbnail generation and deletion
	thumbnailGroup := r.Group("/api/thumbnail", middleware.RequireAuth(authService))
	{
		thumbnailGroup.POST("/generate", thumbnailHandler.Generate)
		thumbnailGroup.DELETE("/delete/:id", thumbnailHandler.Delete)
	}

	// Per-user reads
	userGroup := r.Group("/api/user", middleware.RequireAuth(authService))
	{
		userGroup.GET("/thumbnails", userHandler.ListThumbnails)
		userGroup.GET("/thumbnail/:id", userHandler.GetThumbnail)
	}

	return r
}
