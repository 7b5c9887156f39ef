package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL: лимитер IP без запросов дольше этого срока удаляется.
const limiterIdleTTL = 10 * time.Minute

type ipLimiters struct {
	mu    sync.Mutex
	store *cache.Cache
	limit rate.Limit
	burst int
	idle  time.Duration
}

func newIPLimiters(limit rate.Limit, burst int, idle time.Duration) *ipLimiters {
	return &ipLimiters{
		store: cache.New(idle, 2*idle),
		limit: limit,
		burst: burst,
		idle:  idle,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.store.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// продлеваем срок при каждом обращении
	l.store.Set(ip, limiter, l.idle)
	return limiter.(*rate.Limiter)
}

// RateLimit ограничивает частоту запросов для каждого IP клиента.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	return rateLimit(newIPLimiters(rate.Limit(perSecond), burst, limiterIdleTTL))
}

func rateLimit(limiters *ipLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
