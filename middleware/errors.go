package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-review-api/apperr"
	"restaurant-review-api/logging"
)

// ErrorHandler renders the last error attached by a handler as
// {"message": ...} with the status of its kind. Server-side failures are
// logged with their cause; clients only see the public message.
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := apperr.Public(err)
		if status >= http.StatusInternalServerError {
			log.Error(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
		}
		c.JSON(status, gin.H{"message": msg})
	}
}

// RouteNotFound answers every unmatched route.
func RouteNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Could not find this route."})
}

// Recovery turns a panic into a 500 with the generic message.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.Error(c.Request.Context(), "panic recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", rec,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "An unknown error occurred"})
	})
}
