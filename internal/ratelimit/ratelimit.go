package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vidtube/vidtube/internal/geoip"
	"github.com/vidtube/vidtube/internal/httputil"
)

// Allower decides whether the client identified by key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter is an in-process token bucket per client address.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*visitor),
		rate:     requestsPerSecond,
		burst:    float64(burst),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	return l.allow(key), nil
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		l.visitors[ip] = &visitor{tokens: l.burst - 1, lastSeen: time.Now()}
		return true
	}

	elapsed := time.Since(v.lastSeen).Seconds()
	v.lastSeen = time.Now()
	v.tokens += elapsed * l.rate
	if v.tokens > l.burst {
		v.tokens = l.burst
	}

	if v.tokens < 1 {
		return false
	}

	v.tokens--
	return true
}

func (l *Limiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return Middleware(l)(next)
}

// Middleware rejects requests the allower refuses. Allower errors let the
// request through.
func Middleware(a Allower) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := a.Allow(r.Context(), geoip.ClientIP(r))
			if err != nil {
				slog.Warn("ratelimit: allower failed, letting request through", "error", err)
				ok = true
			}
			if !ok {
				w.Header().Set("Retry-After", "10")
				httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
