package middleware

import (
	"github.com/GoPolymarket/clawdash/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterSource is satisfied by *service.OwnerRegistry.
type LimiterSource interface {
	LimiterFor(ownerID string) *rate.Limiter
}

// RateLimitMiddleware throttles owner-scoped write proxies per owner.
func RateLimitMiddleware(src LimiterSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.Param("owner")
		if owner == "" {
			c.Next()
			return
		}

		limiter := src.LimiterFor(owner)
		if limiter == nil {
			// Unknown owner; the handler answers 404.
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded for owner "+owner, nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
