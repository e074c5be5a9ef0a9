package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redacted = "[redacted]"

func scrubHeaders(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{redacted}
		}
	}
	return clone
}

// scrubQuery hides the chat handshake token.
func scrubQuery(raw string) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return redacted
	}
	if q.Has("token") {
		q.Set("token", redacted)
	}
	return q.Encode()
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := scrubQuery(c.Request.URL.RawQuery)

		if ce := log.Check(zap.DebugLevel, "incoming request"); ce != nil {
			reqHeaders, _ := json.Marshal(scrubHeaders(c.Request.Header))
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.String("query", query),
				zap.String("origin", c.GetHeader("Origin")),
				zap.ByteString("hdr", reqHeaders),
			)
		}

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		status := c.Writer.Status()

		if c.IsAborted() {
			log.Warn("aborted",
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.String("method", c.Request.Method),
				zap.String("path", path),
			)
			return
		}

		for _, e := range c.Errors {
			log.Error("handler error",
				zap.Int("status", status),
				zap.Error(e),
				zap.String("path", path),
			)
		}

		log.Info("completed",
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
		)
	}
}
