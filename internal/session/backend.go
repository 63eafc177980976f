// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend stores opaque session payloads with a TTL. Load returns nil,
// nil for missing or expired keys.
type Backend interface {
	Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Valkey stores sessions in Valkey.
type Valkey struct {
	client *redis.Client
}

// NewValkey wraps a Valkey client.
func NewValkey(client *redis.Client) *Valkey {
	return &Valkey{client: client}
}

func (v *Valkey) Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return v.client.Set(ctx, key, payload, ttl).Err()
}

func (v *Valkey) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := v.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return payload, err
}

func (v *Valkey) Delete(ctx context.Context, key string) error {
	return v.client.Del(ctx, key).Err()
}

// Memory keeps sessions in process memory. It serves STORAGE=memory
// development mode and tests; sessions do not survive a restart.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	payload []byte
	expires time.Time
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem), now: time.Now}
}

func (m *Memory) Save(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{payload: append([]byte(nil), payload...), expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	if m.now().After(it.expires) {
		delete(m.items, key)
		return nil, nil
	}
	return append([]byte(nil), it.payload...), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
