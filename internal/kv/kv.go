// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kv defines the snapshot persistence contract shared by the entity
// store, the user directory and the session store. Payloads are opaque bytes
// stored under fixed namespace keys.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when nothing has been saved under a key.
var ErrNotFound = errors.New("snapshot not found")

// Driver names a Store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
	DriverS3     Driver = "s3"
)

// Store reads and writes whole snapshots.
type Store interface {
	// Load returns the payload saved under key or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the payload under key.
	Save(ctx context.Context, key string, payload []byte) error

	// Close releases underlying connections.
	Close() error
}

// Memory is a process-local Store. It is the default for tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(payload))
	copy(v, payload)
	m.items[key] = v
	return nil
}

func (m *Memory) Close() error { return nil }
