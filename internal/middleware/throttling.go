package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"deskpulserest/internal/config"
	redisInternal "deskpulserest/internal/repositories/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxRequests = 5
	rateLimitWindow    = 60 * time.Second
)

// RateLimiter throttles per-client-IP request counts through Redis.
type RateLimiter struct {
	redis       *redisInternal.RedisInternal
	maxRequests int
	window      time.Duration
}

// NewRateLimiter creates a rate limiter instance.
func NewRateLimiter(redisClient *redisInternal.RedisInternal, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxRequests: maxRequests,
		window:      window,
	}
}

// setupRedisDB wires the rate limiting middleware.
func setupRedisDB(engine *gin.Engine, cfg *config.App) {
	maxRequests := int(getEnvAsInt64("MAX_REQUEST_COUNT_BY_IP", defaultMaxRequests))

	rateLimiter := NewRateLimiter(cfg.Redis, maxRequests, rateLimitWindow)

	engine.Use(rateLimiter.Middleware())
}

// Middleware returns the Gin middleware for rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, retryAfter, err := rl.checkRateLimit(c.Request.Context(), ip)
		if err != nil {
			rl.handleError(c, err)
			return
		}

		if !allowed {
			rl.handleRateLimitExceeded(c, retryAfter)
			return
		}

		c.Next()
	}
}

// checkRateLimit decides whether the IP may proceed.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, ip string) (allowed bool, retryAfter time.Duration, err error) {
	val, err := rl.redis.Get(ctx, ip).Result()

	// First request from this IP in the window.
	if err == redis.Nil {
		err = rl.redis.Set(ctx, ip, 1, rl.window).Err()
		if err != nil {
			return false, 0, err
		}
		return true, 0, nil
	}

	if err != nil {
		return false, 0, err
	}

	requestCount, err := strconv.Atoi(val)
	if err != nil {
		return false, 0, err
	}

	if requestCount >= rl.maxRequests {
		ttl, err := rl.redis.TTL(ctx, ip).Result()
		if err != nil {
			return false, 0, err
		}
		return false, ttl, nil
	}

	err = rl.redis.Incr(ctx, ip).Err()
	if err != nil {
		return false, 0, err
	}

	return true, 0, nil
}

func (rl *RateLimiter) handleError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, retryAfter time.Duration) {
	c.Writer.Header().Set("Retry-After", retryAfter.String())
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests",
	})
}

func setupSemaphore(engine *gin.Engine) {
	max := getEnvAsInt64("MAX_REQUEST_COUNT_GLOBAL", int64(10))
	sema := semaphore.NewWeighted(max)
	engine.Use(func(c *gin.Context) {
		if err := sema.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		defer sema.Release(1)
		c.Next()
	})
}
