package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one access line per request with request_id and the
// authenticated user, if any.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Printf("[HTTP] request_id=%s user_id=%d method=%s route=%s status=%d latency_ms=%.3f ip=%s",
			GetRequestID(c),
			c.GetInt64(userIDKey),
			c.Request.Method,
			routeOf(c),
			c.Writer.Status(),
			float64(time.Since(start).Microseconds())/1000.0,
			c.ClientIP(),
		)
	}
}

// routeOf prefers the route template so ids stay out of the log.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
