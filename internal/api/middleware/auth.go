package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/logger"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "thumblify_session"

// currentUserKey is the Gin context key holding the resolved capability.
const currentUserKey = "current_user"

// RequireAuth resolves the session cookie to a CurrentUser capability and
// aborts with 401 when the caller is not logged in. Handlers downstream read
// the capability via CurrentUser and never touch ambient session state.
func RequireAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You are not logged in"})
			return
		}

		user, err := authService.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You are not logged in"})
			return
		}

		ctx := logger.WithField(c.Request.Context(), logger.FieldUserID, user.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(currentUserKey, user)

		c.Next()
	}
}

// CurrentUser returns the capability set by RequireAuth, or a zero value
// when the route is unprotected.
func CurrentUser(c *gin.Context) auth.CurrentUser {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(auth.CurrentUser); ok {
			return user
		}
	}
	return auth.CurrentUser{}
}
