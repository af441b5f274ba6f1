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
	"github.com/opentrusty/rentals/internal/store/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the remote database schema",
	}
	cmd.AddCommand(
		migrateDirectionCmd(postgres.Up, "Apply all pending migrations"),
		migrateDirectionCmd(postgres.Down, "Roll back every migration"),
	)
	return cmd
}

func migrateDirectionCmd(dir postgres.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := postgres.Migrate(cfg.Database.DSN(), dir); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			slog.Info("migrations applied", logger.Component("migrate"), logger.Operation(string(dir)))
			return nil
		},
	}
}
