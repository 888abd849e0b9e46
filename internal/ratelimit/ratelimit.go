// Package ratelimit provides per-device request limiting and a cap on
// concurrent sync executions.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	DefaultRPS         int           `mapstructure:"default_rps"`
	BurstMultiplier    float64       `mapstructure:"burst_multiplier"`
	MaxConcurrentSyncs int           `mapstructure:"max_concurrent_syncs"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
}

// Limiter provides per-key rate limiting and sync slot accounting.
type Limiter struct {
	clients         map[string]*clientLimiter
	mu              sync.RWMutex
	defaultRPS      int
	defaultBurst    int
	maxSyncs        int
	cleanupInterval time.Duration
}

type clientLimiter struct {
	rps        *rate.Limiter
	slots      *SlotLimiter
	lastAccess time.Time
}

// SlotLimiter caps concurrent sync executions for one device. A device
// running too many simultaneous syncs drains its own battery and saturates
// its link, defeating the scheduler's decisions.
type SlotLimiter struct {
	max    int
	active int
	mu     sync.Mutex
}

// NewSlotLimiter creates a slot limiter.
func NewSlotLimiter(max int) *SlotLimiter {
	return &SlotLimiter{max: max}
}

// Acquire tries to claim a sync slot.
func (sl *SlotLimiter) Acquire() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.active >= sl.max {
		return false
	}
	sl.active++
	return true
}

// Release frees a sync slot.
func (sl *SlotLimiter) Release() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.active > 0 {
		sl.active--
	}
}

// Active returns the number of claimed slots.
func (sl *SlotLimiter) Active() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.active
}

// NewLimiter creates a rate limiter.
func NewLimiter(cfg *Config) *Limiter {
	if cfg.DefaultRPS <= 0 {
		cfg.DefaultRPS = 50
	}
	if cfg.BurstMultiplier < 1 {
		cfg.BurstMultiplier = 2.0
	}
	if cfg.MaxConcurrentSyncs <= 0 {
		cfg.MaxConcurrentSyncs = 2
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		clients:         make(map[string]*clientLimiter),
		defaultRPS:      cfg.DefaultRPS,
		defaultBurst:    int(float64(cfg.DefaultRPS) * cfg.BurstMultiplier),
		maxSyncs:        cfg.MaxConcurrentSyncs,
		cleanupInterval: cfg.CleanupInterval,
	}

	go l.cleanupLoop()

	return l
}

// Allow checks if a request is allowed for the given key.
func (l *Limiter) Allow(key string) bool {
	client := l.getOrCreate(key)
	client.lastAccess = time.Now()
	return client.rps.Allow()
}

// AcquireSync tries to claim a sync execution slot for the key.
func (l *Limiter) AcquireSync(key string) bool {
	client := l.getOrCreate(key)
	client.lastAccess = time.Now()
	return client.slots.Acquire()
}

// ReleaseSync frees a sync execution slot for the key.
func (l *Limiter) ReleaseSync(key string) {
	l.mu.RLock()
	client, ok := l.clients[key]
	l.mu.RUnlock()

	if ok {
		client.slots.Release()
	}
}

func (l *Limiter) getOrCreate(key string) *clientLimiter {
	l.mu.RLock()
	client, ok := l.clients[key]
	l.mu.RUnlock()

	if ok {
		return client
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok = l.clients[key]; ok {
		return client
	}

	client = &clientLimiter{
		rps:        rate.NewLimiter(rate.Limit(l.defaultRPS), l.defaultBurst),
		slots:      NewSlotLimiter(l.maxSyncs),
		lastAccess: time.Now(),
	}
	l.clients[key] = client
	return client
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.cleanup()
	}
}

// cleanup removes limiters that have been idle with no active syncs.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-l.cleanupInterval * 2)
	for key, client := range l.clients {
		if client.lastAccess.Before(threshold) && client.slots.Active() == 0 {
			delete(l.clients, key)
		}
	}
}

// Stats returns overall limiter statistics.
type Stats struct {
	TrackedKeys int
	ActiveSyncs int
}

// GetStats returns current statistics.
func (l *Limiter) GetStats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	active := 0
	for _, client := range l.clients {
		active += client.slots.Active()
	}
	return Stats{TrackedKeys: len(l.clients), ActiveSyncs: active}
}
