package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// Limiter keeps one token bucket per client key. Buckets idle for longer
// than idleTTL are dropped by the sweeper started with Start.
type Limiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	clients sync.Map // map[string]*clientLimiter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (l *Limiter) Allow(key string) bool {
	now := l.now()
	v, ok := l.clients.Load(key)
	if !ok {
		fresh := &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		v, _ = l.clients.LoadOrStore(key, fresh)
	}
	cl := v.(*clientLimiter)
	cl.lastSeen.Store(now.UnixNano())
	return cl.limiter.AllowN(now, 1)
}

// Start runs the idle sweeper until ctx is done or Stop is called.
func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	interval := l.idleTTL / 6
	if interval < time.Second {
		interval = time.Second
	}

	go func(done chan struct{}) {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}(l.done)
}

func (l *Limiter) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Sweep drops buckets idle for longer than the idle TTL.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-l.idleTTL).UnixNano()
	l.clients.Range(func(key, val any) bool {
		if val.(*clientLimiter).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
		}
		return true
	})
}

func (l *Limiter) Len() int {
	n := 0
	l.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Middleware limits requests per client IP.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": domain.ErrRateLimited.Message,
				"code":  domain.CodeRateLimited,
			})
			return
		}
		c.Next()
	}
}
