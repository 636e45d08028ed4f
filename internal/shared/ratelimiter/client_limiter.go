package ratelimiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorTTL はアクセスが途絶えたクライアントのリミッターを破棄するまでの時間です。
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter はクライアントごとにトークンバケットを割り当てるリミッターです。
type ClientLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewClientLimiter は1秒あたり rps 回、バースト burst 回まで許可するリミッターを生成します。
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow は key のクライアントがリクエストを実行してよいかを返します。
func (cl *ClientLimiter) Allow(key string) bool {
	cl.mu.Lock()
	now := cl.now()
	if now.Sub(cl.lastSweep) > time.Minute {
		for k, v := range cl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(cl.visitors, k)
			}
		}
		cl.lastSweep = now
	}
	v, ok := cl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.visitors[key] = v
	}
	v.lastSeen = now
	cl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Middleware はGinミドルウェアを返します。
// keyFunc が空文字を返した場合はクライアントIPで識別します。
func (cl *ClientLimiter) Middleware(keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ""
		if keyFunc != nil {
			key = keyFunc(c)
		}
		if key == "" {
			key = c.ClientIP()
		}
		if !cl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
