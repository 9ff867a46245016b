package middleware

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

const (
	limiterIdleTTL  = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

type fidLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per authenticated fid with a token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	fids    map[int64]*fidLimiter
	perSec  rate.Limit
	burst   int
	stopped chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a RateLimiter refilling perSec tokens a second up
// to burst. Idle entries are dropped in the background until Stop.
func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		fids:    make(map[int64]*fidLimiter),
		perSec:  rate.Limit(perSec),
		burst:   burst,
		stopped: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether fid may make another request now.
func (rl *RateLimiter) Allow(fid int64) bool {
	rl.mu.Lock()
	l, ok := rl.fids[fid]
	if !ok {
		l = &fidLimiter{limiter: rate.NewLimiter(rl.perSec, rl.burst)}
		rl.fids[fid] = l
	}
	l.lastSeen = time.Now()
	rl.mu.Unlock()

	return l.limiter.Allow()
}

// Stop ends background cleanup.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopped) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopped:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		removed := 0
		for fid, l := range rl.fids {
			if time.Since(l.lastSeen) > limiterIdleTTL {
				delete(rl.fids, fid)
				removed++
			}
		}
		rl.mu.Unlock()
		if removed > 0 {
			slog.Debug("Rate limiter cleanup", "removed", removed)
		}
	}
}

// Interceptor rejects calls over the limit with ResourceExhausted. It must
// run after RequireAuth; calls without a fid are not limited.
func (rl *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			fid := GetFID(ctx)
			if fid != 0 && !rl.Allow(fid) {
				slog.Warn("Rate limit exceeded", "fid", fid, "procedure", req.Spec().Procedure)
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
