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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/opentrusty/rentals/internal/observability/logger"
)

// resetCmd restores the demo dataset in the configured storage and, when
// enabled, in the remote database.
func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace all records with the demo dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			adapter, err := openKV(ctx, cfg)
			if err != nil {
				return err
			}
			defer adapter.Close()

			recs := openRecords(ctx, cfg, adapter, nil, false)
			defer recs.Close()
			if cfg.Database.Enabled && recs.repo == nil {
				return fmt.Errorf("remote database is enabled but unreachable")
			}

			recs.store.Reset(ctx)
			if msg := recs.store.LastError(); msg != "" {
				return fmt.Errorf("reset failed: %s", msg)
			}
			if recs.repo != nil {
				if err := recs.repo.Replace(ctx, recs.store.Snapshot()); err != nil {
					return fmt.Errorf("failed to reset remote database: %w", err)
				}
			}
			slog.InfoContext(ctx, "records reset to demo data", logger.Component("reset"))
			return nil
		},
	}
}
