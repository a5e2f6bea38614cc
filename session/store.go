// Package session keeps each visitor's form state between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wellness-step-by-step/client-form/form"
	"wellness-step-by-step/client-form/utils"
)

var ErrNotFound = errors.New("session not found")

// Store persists form state by session id. Saves are not coordinated: two
// requests on the same session each write their result and the last one wins.
type Store interface {
	Load(ctx context.Context, id string) (*form.State, error)
	Save(ctx context.Context, id string, state *form.State) error
	Delete(ctx context.Context, id string) error
}

func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func key(id string) string {
	return fmt.Sprintf("clientform:%s", id)
}

// RedisStore keeps state as JSON under clientform:<id>.
type RedisStore struct {
	cache utils.RedisClient
	ttl   time.Duration
}

func NewRedisStore(cache utils.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*form.State, error) {
	raw, err := s.cache.GetFromCache(ctx, key(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var state form.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode form state: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state *form.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode form state: %w", err)
	}
	return s.cache.SetToCache(ctx, key(id), string(data), s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.cache.DeleteFromCache(ctx, key(id))
}

// MemoryStore is used when no Redis is configured. Entries are copied on the
// way in and out so callers never share state, and every Save drops the ones
// that have expired.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*form.State, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && s.now().After(entry.expires) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state form.State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode form state: %w", err)
	}
	return &state, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state *form.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode form state: %w", err)
	}
	s.mu.Lock()
	now := s.now()
	s.sweep(now)
	s.entries[id] = memoryEntry{data: data, expires: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// sweep drops expired entries. Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	for id, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, id)
		}
	}
}

// Len is the number of stored entries, expired ones included until the next
// Save.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}
