// Package ratelimit provides per-client request rate limiting, backed by in-process
// token buckets or by fixed-window counters shared through Redis.
package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Backend decides whether one more request is allowed for key under cfg.
type Backend interface {
	Take(ctx context.Context, key string, cfg EndpointConfig) (Info, error)
}

// TokenBucket represents a token bucket rate limiter.
// It allows a certain number of requests (tokens) per time window,
// with tokens refilling at a steady rate.
type TokenBucket struct {
	capacity   int        // Maximum tokens (burst capacity)
	refillRate float64    // Tokens per second
	tokens     float64    // Current tokens available
	lastRefill time.Time  // Last time tokens were refilled
	mu         sync.Mutex // Mutex for thread safety
}

// newTokenBucket creates a new token bucket with the specified capacity and refill rate.
func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity), // Start with full bucket
		lastRefill: time.Now(),
	}
}

// refill adds tokens for the time elapsed since the last refill. Callers hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now
}

// take consumes a token if one is available and reports the bucket state afterwards.
func (tb *TokenBucket) take() (allowed bool, remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		allowed = true
	}

	remaining = int(tb.tokens)
	// Calculate when bucket will be full again
	if tb.tokens < float64(tb.capacity) {
		secondsUntilFull := (float64(tb.capacity) - tb.tokens) / tb.refillRate
		resetTime = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	} else {
		resetTime = now
	}
	return allowed, remaining, resetTime
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// memoryBackend keeps one token bucket per key in process memory.
type memoryBackend struct {
	buckets       map[string]*TokenBucket
	lastAccess    map[string]time.Time
	mu            sync.Mutex
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

func newMemoryBackend(cleanupInterval time.Duration) *memoryBackend {
	b := &memoryBackend{
		buckets:    make(map[string]*TokenBucket),
		lastAccess: make(map[string]time.Time),
	}
	if cleanupInterval > 0 {
		b.cleanupTicker = time.NewTicker(cleanupInterval)
		b.cleanupStop = make(chan struct{})
		go b.cleanup()
	}
	return b
}

// Take implements Backend.
func (b *memoryBackend) Take(_ context.Context, key string, cfg EndpointConfig) (Info, error) {
	bucket := b.getBucket(key, cfg)

	allowed, remaining, resetTime := bucket.take()
	info := Info{
		Allowed:   allowed,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	// Calculate retry after if not allowed
	if !allowed {
		info.RetryAfter = max(time.Until(resetTime), 0)
	}
	return info, nil
}

// getBucket gets or creates a token bucket for the given key and records the access.
func (b *memoryBackend) getBucket(key string, cfg EndpointConfig) *TokenBucket {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess[key] = time.Now()
	if bucket, exists := b.buckets[key]; exists {
		return bucket
	}

	// Refill rate = limit / window duration in seconds
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.Limit
	}
	bucket := newTokenBucket(capacity, float64(cfg.Limit)/window.Seconds())
	b.buckets[key] = bucket
	return bucket
}

// cleanup removes old unused buckets to prevent memory leaks.
func (b *memoryBackend) cleanup() {
	for {
		select {
		case <-b.cleanupTicker.C:
			b.cleanupBuckets(time.Now().Add(-1 * time.Hour))
		case <-b.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets that haven't been accessed since cutoff.
func (b *memoryBackend) cleanupBuckets(cutoff time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, lastAccess := range b.lastAccess {
		if lastAccess.Before(cutoff) {
			delete(b.buckets, key)
			delete(b.lastAccess, key)
		}
	}
}

func (b *memoryBackend) stop() {
	b.stopOnce.Do(func() {
		if b.cleanupTicker != nil {
			b.cleanupTicker.Stop()
		}
		if b.cleanupStop != nil {
			close(b.cleanupStop)
		}
	})
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter applies endpoint limits per client using a Backend.
type Limiter struct {
	config  *Config
	backend Backend
	memory  *memoryBackend
}

// NewLimiter creates a new rate limiter backed by in-process token buckets.
func NewLimiter(config *Config) *Limiter {
	config = withDefaults(config)
	var interval time.Duration
	if config.Enabled {
		interval = config.CleanupInterval
	}
	memory := newMemoryBackend(interval)
	return &Limiter{config: config, backend: memory, memory: memory}
}

// NewLimiterWithBackend creates a rate limiter that stores its counters in backend.
func NewLimiterWithBackend(config *Config, backend Backend) *Limiter {
	return &Limiter{config: withDefaults(config), backend: backend}
}

func withDefaults(config *Config) *Config {
	if config != nil {
		return config
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
	}
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
// Backend failures are logged and the request is allowed.
func (l *Limiter) Allow(ctx context.Context, clientID string, endpoint string, method string) (bool, Info) {
	// Check if rate limiting is disabled
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}

	// Check blacklist
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	bucketKey := clientID + ":" + endpoint + ":" + method
	if endpointConfig == nil {
		// Use global default
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit, // Use limit as burst for default
		}
	} else {
		// One bucket per endpoint pattern, so varying the proposal id does not reset the limit
		bucketKey = clientID + ":" + endpointConfig.key() + ":" + method
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	info, err := l.backend.Take(ctx, bucketKey, *endpointConfig)
	if err != nil {
		log.Printf("[rate-limit] Backend error, allowing request: %v", err)
		return true, Info{Allowed: true, Limit: endpointConfig.Limit}
	}
	return info.Allowed, info
}

// Stop stops the cleanup goroutine of the in-process backend.
func (l *Limiter) Stop() {
	if l.memory != nil {
		l.memory.stop()
	}
}
