package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Time window (e.g., 1 minute)
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	Backend() string
}

// RateLimit returns a Gin middleware limiting requests per client IP.
// Limiter errors fail open.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable",
				zap.String("backend", l.Backend()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			metrics.RecordRateLimited(l.Backend())
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRedisLimiter(redisClient *redis.Client, config RateLimiterConfig) *RedisLimiter {
	return &RedisLimiter{redis: redisClient, config: config}
}

func (rl *RedisLimiter) Backend() string { return "redis" }

// Allow counts the request with INCR and starts the window on the first hit.
func (rl *RedisLimiter) Allow(ctx context.Context, ip string) (bool, time.Duration, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}

	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		ttl, err := rl.redis.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = rl.config.Window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}

// MemoryLimiter keeps a token bucket per client in process memory.
// Buckets idle for longer than two windows are dropped.
type MemoryLimiter struct {
	mu      sync.Mutex
	config  RateLimiterConfig
	clients map[string]*memoryClient
	now     func() time.Time
	swept   time.Time
}

type memoryClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(config RateLimiterConfig) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		clients: make(map[string]*memoryClient),
		now:     time.Now,
	}
}

func (ml *MemoryLimiter) Backend() string { return "memory" }

func (ml *MemoryLimiter) Allow(_ context.Context, ip string) (bool, time.Duration, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	ml.sweep(now)

	client, ok := ml.clients[ip]
	if !ok {
		every := rate.Every(ml.config.Window / time.Duration(ml.config.MaxRequests))
		client = &memoryClient{limiter: rate.NewLimiter(every, ml.config.MaxRequests)}
		ml.clients[ip] = client
	}
	client.lastSeen = now

	r := client.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, ml.config.Window, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (ml *MemoryLimiter) sweep(now time.Time) {
	idle := 2 * ml.config.Window
	if now.Sub(ml.swept) < idle {
		return
	}
	for ip, client := range ml.clients {
		if now.Sub(client.lastSeen) > idle {
			delete(ml.clients, ip)
		}
	}
	ml.swept = now
}
