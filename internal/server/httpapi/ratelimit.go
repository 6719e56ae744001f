package httpapi

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/metrics"
	"golang.org/x/time/rate"
)

// DefaultLoginRatePerMinute is used when the configured rate is not positive.
const DefaultLoginRatePerMinute = 10

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter throttles login attempts per client address. A background
// goroutine drops idle entries until Stop is called.
type LoginLimiter struct {
	rate            rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	log     logging.Logger
	metrics metrics.Recorder

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLoginLimiter allows perMinute attempts per client per minute, with a
// burst of the same size.
func NewLoginLimiter(perMinute int, log logging.Logger, m metrics.Recorder) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = DefaultLoginRatePerMinute
	}
	l := &LoginLimiter{
		rate:            rate.Limit(float64(perMinute) / 60.0),
		burst:           perMinute,
		cleanupInterval: 5 * time.Minute,
		limiters:        make(map[string]*clientLimiter),
		log:             log,
		metrics:         m,
		stopCh:          make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Len returns the number of tracked clients.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LoginLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cl, ok := l.limiters[key]; ok {
		cl.lastAccess = now
		return cl.limiter
	}

	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = &clientLimiter{limiter: limiter, lastAccess: now}
	return limiter
}

func (l *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
			l.log.Debug(context.Background(), "login limiter cleanup", "clients", l.Len())
		case <-l.stopCh:
			return
		}
	}
}

// cleanup removes clients idle for more than two cleanup intervals.
func (l *LoginLimiter) cleanup(now time.Time) {
	ttl := l.cleanupInterval * 2

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, cl := range l.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(l.limiters, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		if !l.get(key, time.Now()).Allow() {
			l.metrics.RecordLoginRateLimited()
			l.log.Warn(r.Context(), "login rate limit exceeded", "client", key)

			retryAfter := int(math.Ceil(1.0 / float64(l.rate)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeMessage(w, http.StatusTooManyRequests, msgTooManyLogins)
			return
		}

		next.ServeHTTP(w, r)
	})
}
