package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
)

const (
	HeaderRequestID = "X-Request-Id"
	ginRequestIDKey = "request_id"
	maxRequestIDLen = 128
)

// RequestIDMiddleware tags every request with an id taken from X-Request-Id
// (or freshly generated), exposes it to handlers through both the gin and the
// request context, echoes it back, and writes one access line per request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = newRequestID()
		}

		c.Set(ginRequestIDKey, rid)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rid))
		c.Header(HeaderRequestID, rid)

		began := time.Now()
		c.Next()

		log.Printf("[req] id=%s ip=%s method=%s path=%s status=%d latency=%s",
			rid, c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(began))
	}
}

// RequestIDFrom returns the id set by RequestIDMiddleware, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ginRequestIDKey)
}

func newRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "rid-" + time.Now().UTC().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(b[:])
}
