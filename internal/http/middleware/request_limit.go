package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds request bodies. Loan and claim payloads are
// small JSON documents; anything near this limit is malformed or hostile.
const DefaultMaxBodyBytes int64 = 1 << 20

// RequestBodyLimit caps the readable request body. Oversized bodies surface
// as bind errors in the handlers, which report them as invalid requests.
func RequestBodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
