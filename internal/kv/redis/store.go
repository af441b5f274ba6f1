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

// Package redis stores snapshots as plain string values in Redis so several
// server replicas can share one dataset.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentrusty/rentals/internal/kv"
	"github.com/redis/go-redis/v9"
)

// Client is the subset of *redis.Client the store needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is a kv.Store over a Redis client.
type Store struct {
	client Client
	prefix string
}

func New(client Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Open dials Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return New(rdb, cfg.Prefix), nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, s.key(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
