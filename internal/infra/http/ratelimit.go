package http

import (
	"strconv"

	"sentra/internal/domain"

	"github.com/gin-gonic/gin"
)

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
	if !decision.Allowed && decision.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
	}
}
