package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quizz-service/backend/pkg/response"
)

// idleLimiterTTL is how long an unused per-user limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter hands out one token bucket per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int]*userLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
	logger   *zap.Logger
}

// NewUserRateLimiter allows perSecond requests per user with the given burst.
// A non-positive perSecond disables limiting.
func NewUserRateLimiter(perSecond float64, burst int, logger *zap.Logger) *UserRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters: make(map[int]*userLimiter),
		rate:     limit,
		burst:    burst,
		now:      time.Now,
		logger:   logger,
	}
}

// Allow reports whether userID may make a request now.
func (l *UserRateLimiter) Allow(userID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ul, ok := l.limiters[userID]
	if !ok {
		l.evictIdle(now)
		ul = &userLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

func (l *UserRateLimiter) evictIdle(now time.Time) {
	for id, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > idleLimiterTTL {
			delete(l.limiters, id)
		}
	}
}

// Middleware rejects requests over the caller's budget with 429. It must run
// after Authenticate.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := c.Get(ContextUserID)
		id, ok := uid.(int)
		if !ok {
			c.Next()
			return
		}
		if !l.Allow(id) {
			l.logger.Warn("rate limited", zap.Int("user_id", id), zap.String("path", c.Request.URL.Path))
			response.TooManyRequests(c, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
