package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Limiter counts requests per subject in fixed one-minute windows. Keys are
// namespaced so several limiters can share one Redis.
type Limiter struct {
	store  extratelimit.Limiter
	prefix string
}

func NewLimiter(rdb *redis.Client, perMinute int, prefix string) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(perMinute),
		extratelimit.WithWindow(time.Minute),
	)
	return &Limiter{store: store, prefix: prefix}
}

// NewMemoryLimiter keeps counters in process. Used when Redis is not
// configured; counts are not shared between replicas.
func NewMemoryLimiter(perMinute int, prefix string) *Limiter {
	return &Limiter{store: newMemoryStore(perMinute, time.Minute), prefix: prefix}
}

func NewTestLimiter(store extratelimit.Limiter) *Limiter {
	return &Limiter{store: store, prefix: "test"}
}

func (l *Limiter) key(subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.prefix, subject)
}

// Allow consumes one request for subject.
func (l *Limiter) Allow(ctx context.Context, subject string) (bool, error) {
	res, err := l.store.AllowN(ctx, l.key(subject), 1)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (l *Limiter) Status(ctx context.Context, subject string) (*extratelimit.Result, error) {
	return l.store.Status(ctx, l.key(subject))
}

type bucket struct {
	count int
	until time.Time
}

// memoryStore drops expired buckets at most once per window so idle
// subjects do not accumulate.
type memoryStore struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newMemoryStore(limit int, window time.Duration) *memoryStore {
	return &memoryStore{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *memoryStore) AllowN(ctx context.Context, key string, n int) (*extratelimit.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	b, ok := m.buckets[key]
	if !ok || now.After(b.until) {
		b = &bucket{until: now.Add(m.window)}
		m.buckets[key] = b
	}
	if b.count+n > m.limit {
		return &extratelimit.Result{Allowed: false}, nil
	}
	b.count += n
	return &extratelimit.Result{Allowed: true}, nil
}

func (m *memoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	for key, b := range m.buckets {
		if now.After(b.until) {
			delete(m.buckets, key)
		}
	}
	m.lastSweep = now
}

func (m *memoryStore) Allow(ctx context.Context, key string) (*extratelimit.Result, error) {
	return m.AllowN(ctx, key, 1)
}

func (m *memoryStore) Status(ctx context.Context, key string) (*extratelimit.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok || m.now().After(b.until) {
		return &extratelimit.Result{Allowed: m.limit > 0}, nil
	}
	return &extratelimit.Result{Allowed: b.count < m.limit}, nil
}
