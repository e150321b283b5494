package signal

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

var ErrRateLimited = errors.New("too many lobbies created, slow down")

// CreateRateLimiter allows each peer at most limit lobby creations per
// sliding interval. A non-positive limit disables it.
type CreateRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.PeerID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewCreateRateLimiter(limit int, interval time.Duration) *CreateRateLimiter {
	return &CreateRateLimiter{
		history:  make(map[domain.PeerID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *CreateRateLimiter) Allow(peer domain.PeerID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[peer]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[peer] = fresh
		return false
	}
	rl.history[peer] = append(fresh, now)
	return true
}
