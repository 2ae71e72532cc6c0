package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"
	"lifelog/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitStore counts hits per key in fixed windows.
type RateLimitStore interface {
	// Hit records one request for key and returns the count in the current window
	// and when that window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process. Counters are not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window), now: time.Now}
}

func (s *MemoryStore) Hit(_ context.Context, key string, d time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Sweep drops windows that have already reset.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// RedisStore shares counters through Redis so limits hold across replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisStore) Hit(ctx context.Context, key string, d time.Duration) (int, time.Time, error) {
	k := s.prefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, d)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit: %w", err)
	}
	reset := time.Now().Add(d)
	if t := ttl.Val(); t > 0 {
		reset = time.Now().Add(t)
	}
	return int(incr.Val()), reset, nil
}

// NewRateLimitStore uses Redis when REDIS_ADDR is set and reachable, memory otherwise.
func NewRateLimitStore(ctx context.Context) RateLimitStore {
	log := applog.L.Named("RateLimit")
	if config.Cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; using in-memory rate limiting")
		return NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Cfg.RedisAddr,
		Password: config.Cfg.RedisPassword,
		DB:       config.Cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable; falling back to in-memory rate limiting", zap.Error(err))
		_ = client.Close()
		return NewMemoryStore()
	}
	log.Info("Using Redis rate limiting", zap.String("addr", config.Cfg.RedisAddr))
	return NewRedisStore(client)
}

// RateLimit allows limit requests per client IP per window under scope.
// Store errors let the request through.
func RateLimit(store RateLimitStore, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		count, resetAt, err := store.Hit(c.Request.Context(), scope+":"+c.ClientIP(), window)
		if err != nil {
			applog.L.Warn("Rate limit store failed; allowing request", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > limit {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			metrics.RateLimitedRequests.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
