// FILE: src/internal/mcp/ratelimit.go
package mcp

import (
	"sync"
	"time"

	"pgmoneta-mcp/src/internal/config"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	maxClients int

	cleanupInterval time.Duration
	done            chan struct{}
	stopOnce        sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns nil when limiting is disabled
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	rl := &RateLimiter{
		clients:         make(map[string]*clientLimiter),
		limit:           rate.Limit(cfg.RequestsPerSecond),
		burst:           int(cfg.BurstSize),
		maxClients:      int(cfg.MaxTrackedClients),
		cleanupInterval: time.Minute,
		done:            make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow consumes one token for ip. A nil limiter allows everything.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl == nil {
		return true
	}
	return rl.getLimiter(ip).Allow()
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if client, ok := rl.clients[ip]; ok {
		client.lastSeen = now
		return client.limiter
	}

	if len(rl.clients) >= rl.maxClients {
		rl.evictOldest()
	}

	client := &clientLimiter{
		limiter:  rate.NewLimiter(rl.limit, rl.burst),
		lastSeen: now,
	}
	rl.clients[ip] = client
	return client.limiter
}

// evictOldest drops the least recently seen client; callers hold mu
func (rl *RateLimiter) evictOldest() {
	var oldestIP string
	var oldest time.Time
	for ip, client := range rl.clients {
		if oldestIP == "" || client.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = client.lastSeen
		}
	}
	delete(rl.clients, oldestIP)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.removeOldClients()
		}
	}
}

func (rl *RateLimiter) removeOldClients() {
	threshold := time.Now().Add(-rl.cleanupInterval * 2)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, client := range rl.clients {
		if client.lastSeen.Before(threshold) {
			delete(rl.clients, ip)
		}
	}
}

// TrackedClients returns the limiter table size
func (rl *RateLimiter) TrackedClients() int {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the cleanup routine
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.done) })
}
