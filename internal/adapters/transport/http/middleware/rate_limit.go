package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// NewHTTPRateLimitPerIP limits requests per client IP. Limiters live in an
// LRU so memory stays bounded; an idle IP's limiter expires after ttl.
func NewHTTPRateLimitPerIP(
	limit float64,
	burst, cacheSize int,
	ttl time.Duration,
) gin.HandlerFunc {
	visitors := expirable.NewLRU[string, *rate.Limiter](cacheSize, nil, ttl)

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		l, ok := visitors.Get(host)
		if !ok {
			l = rate.NewLimiter(rate.Limit(limit), burst)
			visitors.Add(host, l)
		}

		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.StatusResponse{
				Success: false,
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
