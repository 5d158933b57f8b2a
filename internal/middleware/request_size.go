package middleware

import (
	"net/http"

	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes fits the largest JSON this API takes (a completion
// record or an element with all fields); photos and signatures are URLs.
const DefaultMaxBodyBytes = 64 << 10

// RequestSizeLimitMiddleware refuses bodies over maxBytes. A declared
// Content-Length is checked up front; chunked bodies are cut off while
// reading and reported by the JSON binder as the same error kind.
func RequestSizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			utils.RespondError(c, appErrors.PayloadTooLarge(maxBytes))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
