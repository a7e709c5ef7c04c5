package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	requestIDHeader    = "X-Request-Id"
	provisionalLockTTL = 60 * time.Second
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

type idempotencyEntry struct {
	InProgress bool   `json:"in_progress"`
	Code       int    `json:"code"`
	Body       []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated request id instead
// of re-executing the handler. Funding submissions go through this so a
// client retry cannot double-pay.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if !requestIDPattern.MatchString(reqID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_or_invalid_request_id"})
			return
		}

		address := ""
		if session, ok := SessionFromContext(c); ok {
			address = session.Address
		}
		key := "idemp:" + c.Request.Method + ":" + c.FullPath() + ":" + address + ":" + reqID
		ctx := c.Request.Context()

		provisional, _ := json.Marshal(idempotencyEntry{InProgress: true})
		set, err := rdb.SetNX(ctx, key, provisional, provisionalLockTTL).Result()
		if err != nil {
			// Redis being down must not block payments.
			c.Next()
			return
		}
		if !set {
			raw, err := rdb.Get(ctx, key).Bytes()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
				return
			}
			var entry idempotencyEntry
			if json.Unmarshal(raw, &entry) != nil || entry.InProgress {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
				return
			}
			c.Data(entry.Code, "application/json", entry.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		final, _ := json.Marshal(idempotencyEntry{
			Code: recorder.Status(),
			Body: recorder.buf.Bytes(),
		})
		_ = rdb.Set(ctx, key, final, ttl).Err()
	}
}
