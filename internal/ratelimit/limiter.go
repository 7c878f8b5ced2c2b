package ratelimit

import (
	"sync"
	"time"
)

// LimitResult contains the result of a rate limit check
type LimitResult struct {
	Allowed    bool          // Whether the request is allowed
	RetryAfter time.Duration // Suggested wait time if not allowed
	LimitType  string        // "global" or the operation category name
	Remaining  float64       // Remaining tokens in the relevant bucket
}

// Limiter manages rate limiting with a global bucket and one bucket per
// repository operation category (store, search, analysis, relationships,
// trace — see routeToOperation in internal/api).
type Limiter struct {
	mu               sync.RWMutex
	enabled          bool
	globalBucket     *Bucket
	operationBuckets map[string]*Bucket
	config           *Config
	metrics          *Metrics
}

// NewLimiter creates a new rate limiter from configuration
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Limiter{
		enabled:          cfg.Enabled,
		operationBuckets: make(map[string]*Bucket),
		config:           cfg,
		metrics:          NewMetrics(),
	}

	// Create global bucket
	l.globalBucket = NewBucket(
		float64(cfg.Global.BurstSize),
		cfg.Global.RequestsPerSecond,
	)

	// Create per-operation buckets
	for _, opLimit := range cfg.Operations {
		l.operationBuckets[opLimit.Name] = NewBucket(
			float64(opLimit.BurstSize),
			opLimit.RequestsPerSecond,
		)
	}

	return l
}

// Allow checks if a request for the given operation category is allowed
// Returns a LimitResult with the decision and metadata
func (l *Limiter) Allow(operation string) *LimitResult {
	if !l.enabled {
		return &LimitResult{
			Allowed:   true,
			LimitType: "disabled",
			Remaining: -1,
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	// Check global limit first
	if !l.globalBucket.TryConsume(1) {
		retryAfter := l.globalBucket.TimeToWait(1)
		l.metrics.RecordRejection("global", operation)
		return &LimitResult{
			Allowed:    false,
			RetryAfter: retryAfter,
			LimitType:  "global",
			Remaining:  l.globalBucket.Tokens(),
		}
	}

	// Check operation-specific limit if configured
	if opBucket, exists := l.operationBuckets[operation]; exists {
		if !opBucket.TryConsume(1) {
			// Refund the global token since we're rejecting
			gb := l.globalBucket
			gb.mu.Lock()
			gb.tokens++
			if gb.tokens > gb.capacity {
				gb.tokens = gb.capacity
			}
			gb.mu.Unlock()
			retryAfter := opBucket.TimeToWait(1)
			l.metrics.RecordRejection(operation, operation)
			return &LimitResult{
				Allowed:    false,
				RetryAfter: retryAfter,
				LimitType:  operation,
				Remaining:  opBucket.Tokens(),
			}
		}
		l.metrics.RecordAllowed(operation)
		return &LimitResult{
			Allowed:   true,
			LimitType: operation,
			Remaining: opBucket.Tokens(),
		}
	}

	// No operation-specific limit, global check passed
	l.metrics.RecordAllowed(operation)
	return &LimitResult{
		Allowed:   true,
		LimitType: "global",
		Remaining: l.globalBucket.Tokens(),
	}
}

// IsEnabled returns whether rate limiting is enabled
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// SetEnabled enables or disables rate limiting
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// GetMetrics returns the current metrics
func (l *Limiter) GetMetrics() *Metrics {
	return l.metrics
}

// GetOperationBucket returns the bucket for a specific operation category (for testing)
func (l *Limiter) GetOperationBucket(operation string) *Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.operationBuckets[operation]
}

// GetGlobalBucket returns the global bucket (for testing)
func (l *Limiter) GetGlobalBucket() *Bucket {
	return l.globalBucket
}

// Reset resets all buckets to full capacity
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalBucket.Reset()
	for _, bucket := range l.operationBuckets {
		bucket.Reset()
	}
}

// Stats returns current limiter statistics
type Stats struct {
	Enabled         bool               `json:"enabled"`
	GlobalTokens    float64            `json:"global_tokens"`
	OperationTokens map[string]float64 `json:"operation_tokens"`
}

// GetStats returns current limiter statistics
func (l *Limiter) GetStats() *Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := &Stats{
		Enabled:         l.enabled,
		GlobalTokens:    l.globalBucket.Tokens(),
		OperationTokens: make(map[string]float64),
	}

	for name, bucket := range l.operationBuckets {
		stats.OperationTokens[name] = bucket.Tokens()
	}

	return stats
}
