package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/thumblify/internal/api/middleware"
	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/domain"
	"github.com/timmy/thumblify/internal/logger"
)

// AuthHandler handles registration, login, and logout.
type AuthHandler struct {
	authService  *auth.Service
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie should be true
// whenever the server is reached over HTTPS.
func NewAuthHandler(authService *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPayload is the client-facing subset of a user account.
func userPayload(user *domain.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, session, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		logger.CtxError(c.Request.Context(), "Registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user":    userPayload(user),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
			return
		}
		logger.CtxError(c.Request.Context(), "Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userPayload(user),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(middleware.SessionCookie)
	if err == nil {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			logger.CtxWarn(c.Request.Context(), "Failed to delete session: %v", err)
		}
	}

	// Expire the cookie regardless of whether a session existed
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me handles GET /api/auth/me on the protected group.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)

	account, err := h.authService.GetUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "You are not logged in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(account)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(h.authService.SessionTTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}
