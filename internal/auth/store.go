package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/sqlinline"
)

// MemoryStore keeps entries in process. Suitable for tests and single-node
// development; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)) {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.entries[key]; ok && (e.expiresAt.IsZero() || now.Before(e.expiresAt)) {
		return false, nil
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// RedisStore keeps entries in Redis under a key prefix.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.prefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// PostgresStore keeps entries in the kv_entries table.
type PostgresStore struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql, now: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectKV, key).Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertKV, key, value, s.expiry(ttl))
	return err
}

// PutIfAbsent inserts the row, or replaces it only when the existing one has
// expired.
func (s *PostgresStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QInsertKVIfAbsent, key, value, s.expiry(ttl))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := s.now().Add(ttl)
	return &t
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteKV, key)
	return err
}

var (
	_ domain.KeyValueStore = (*MemoryStore)(nil)
	_ domain.KeyValueStore = (*RedisStore)(nil)
	_ domain.KeyValueStore = (*PostgresStore)(nil)
)
