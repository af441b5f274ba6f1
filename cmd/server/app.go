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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opentrusty/rentals/internal/config"
	"github.com/opentrusty/rentals/internal/kv"
	"github.com/opentrusty/rentals/internal/kv/driver"
	"github.com/opentrusty/rentals/internal/kv/redis"
	"github.com/opentrusty/rentals/internal/kv/s3"
	"github.com/opentrusty/rentals/internal/observability/logger"
	"github.com/opentrusty/rentals/internal/observability/metrics"
	"github.com/opentrusty/rentals/internal/rental"
	"github.com/opentrusty/rentals/internal/store/postgres"
)

const mirrorTimeout = 5 * time.Second

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	return cfg, nil
}

func openKV(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	st := cfg.Storage
	store, err := driver.Open(ctx, driver.Config{
		Driver:     kv.Driver(st.Driver),
		SQLitePath: st.SQLitePath,
		Redis: redis.Config{
			Addr:     st.RedisAddr,
			Password: st.RedisPassword,
			DB:       st.RedisDB,
			Prefix:   st.RedisPrefix,
		},
		S3: s3.Config{
			Bucket:    st.S3Bucket,
			Region:    st.S3Region,
			Endpoint:  st.S3Endpoint,
			Prefix:    st.S3Prefix,
			PathStyle: st.S3PathStyle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", st.Driver, err)
	}
	slog.Info("snapshot storage ready", logger.Driver(st.Driver))
	return store, nil
}

// unreachable stands in for the remote data service when it cannot be
// dialed so the store takes the same fallback path as a failed load.
type unreachable struct{ err error }

func (u unreachable) Load(context.Context) (rental.Snapshot, error) {
	return rental.Snapshot{}, u.err
}

// records is the loaded entity store plus whatever remote backend feeds it.
type records struct {
	store *rental.Store
	db    *postgres.DB
	repo  *postgres.Repository
}

func (r *records) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// openRecords builds the entity store over adapter and loads it, from the
// remote database when one is enabled. With mirror set, the postgres
// write-through is subscribed once the remote load succeeded.
func openRecords(ctx context.Context, cfg *config.Config, adapter kv.Store, meter *metrics.Meter, mirror bool) *records {
	out := &records{store: rental.NewStore(adapter)}

	var remote rental.Source
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Database.DSN(),
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			remote = unreachable{err: err}
		} else {
			out.db = db
			out.repo = postgres.NewRepository(db)
			remote = out.repo
		}
	}

	origin := out.store.Load(ctx, remote)
	slog.InfoContext(ctx, "records loaded", logger.Component("rental_store"), logger.Origin(string(origin)))

	switch origin {
	case rental.OriginRemoteFallback:
		if meter != nil {
			meter.RecordRemoteFallback(ctx)
		}
	case rental.OriginRemote:
		if !mirror {
			break
		}
		out.store.Subscribe(out.repo.Mirror(mirrorTimeout))
	}
	return out
}
