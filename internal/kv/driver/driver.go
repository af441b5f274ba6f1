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

// Package driver selects a kv.Store implementation by name.
package driver

import (
	"context"
	"fmt"

	"github.com/opentrusty/rentals/internal/kv"
	"github.com/opentrusty/rentals/internal/kv/redis"
	"github.com/opentrusty/rentals/internal/kv/s3"
	"github.com/opentrusty/rentals/internal/kv/sqlite"
)

type Config struct {
	Driver     kv.Driver
	SQLitePath string
	Redis      redis.Config
	S3         s3.Config
}

// Open returns the configured store. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (kv.Store, error) {
	d := cfg.Driver
	if d == "" {
		d = kv.DriverSQLite
	}
	switch d {
	case kv.DriverMemory:
		return kv.NewMemory(), nil
	case kv.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case kv.DriverRedis:
		return redis.Open(ctx, cfg.Redis)
	case kv.DriverS3:
		return s3.Open(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", d)
	}
}
