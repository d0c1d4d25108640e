package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

// DefaultMaxBodySize bounds JSON request bodies; event descriptions cap at 2000 chars.
const DefaultMaxBodySize int64 = 1 << 20

// SizeLimit rejects requests whose declared body exceeds maxBytes and caps
// the reader for requests that do not declare a length.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.Abort(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
