package server

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gochat/internal/common"
	"gochat/internal/config"
)

const (
	defaultRPS   = 10
	defaultBurst = 20
	idleTimeout  = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per authenticated user.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[uint64]*visitor
	rps      rate.Limit
	burst    int
	enabled  bool
	log      *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(cfg *config.Config, log *zap.Logger) *RateLimiter {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	l := &RateLimiter{
		visitors: make(map[uint64]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		enabled:  cfg.RateLimit.Enabled,
		log:      log,
		stop:     make(chan struct{}),
	}
	if l.enabled {
		go l.cleanupVisitors()
	}
	return l
}

func (l *RateLimiter) Allow(userID uint64) bool {
	if !l.enabled {
		return true
	}
	return l.get(userID).Allow()
}

func (l *RateLimiter) get(userID uint64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Prune forgets users idle since before cutoff and returns how many were removed.
func (l *RateLimiter) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, id)
			removed++
		}
	}
	return removed
}

func (l *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.Prune(now.Add(-idleTimeout))
		}
	}
}

func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware must run after authentication; anonymous requests pass through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserIDFromContext(r.Context())
		if ok && !l.Allow(userID) {
			l.log.Warn("rate limit exceeded", zap.Uint64("user_id", userID), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			common.WriteJSON(w, http.StatusTooManyRequests, common.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
