package middleware

import "github.com/gin-gonic/gin"

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// Session cookies require credentials, so allowed origins are echoed back
// instead of wildcarded unless AllowAllOrigins is set.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowedOrigin string
		if config.AllowAllOrigins {
			allowedOrigin = "*"
			// When using *, credentials must be false
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")
		} else {
			allowed := false
			for _, item := range config.AllowedOrigins {
				if origin == item || item == "*" {
					allowed = true
					allowedOrigin = origin
					break
				}
			}

			if !allowed && len(config.AllowedOrigins) > 0 {
				c.Next()
				return
			}

			if allowedOrigin == "" {
				allowedOrigin = origin
			}
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
