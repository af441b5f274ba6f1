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

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/rentals/internal/observability/logger"
	"github.com/opentrusty/rentals/internal/rental"
)

var tables = map[rental.Kind]string{
	rental.KindApartment:   "apartments",
	rental.KindFlat:        "flats",
	rental.KindTenant:      "tenants",
	rental.KindLease:       "leases",
	rental.KindPayment:     "payments",
	rental.KindMaintenance: "maintenance",
}

// resetOrder deletes dependants before the records they point at.
var resetOrder = []string{"maintenance", "payments", "leases", "tenants", "flats", "apartments"}

func tableFor(kind rental.Kind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("no table for %q", kind)
	}
	return t, nil
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, table)
}

func selectSQL(table string) string {
	return fmt.Sprintf(`SELECT data FROM %s ORDER BY created_at, id`, table)
}

// row is the column set shared by every record table.
type row struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func rowFor(rec any) (row, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode record: %w", err)
	}
	var m rental.Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return row{}, fmt.Errorf("failed to read record identity: %w", err)
	}
	if m.ID == "" {
		return row{}, fmt.Errorf("record has no id")
	}
	return row{ID: m.ID, Data: data, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

// Repository mirrors the rental store into PostgreSQL and serves as its
// startup source.
type Repository struct {
	db *DB
}

// NewRepository creates a new rental record repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Load reads every collection. It implements rental.Source.
func (r *Repository) Load(ctx context.Context) (rental.Snapshot, error) {
	var snap rental.Snapshot
	if err := loadTable(ctx, r.db, "apartments", &snap.Apartments); err != nil {
		return rental.Snapshot{}, err
	}
	if err := loadTable(ctx, r.db, "flats", &snap.Flats); err != nil {
		return rental.Snapshot{}, err
	}
	if err := loadTable(ctx, r.db, "tenants", &snap.Tenants); err != nil {
		return rental.Snapshot{}, err
	}
	if err := loadTable(ctx, r.db, "leases", &snap.Leases); err != nil {
		return rental.Snapshot{}, err
	}
	if err := loadTable(ctx, r.db, "payments", &snap.Payments); err != nil {
		return rental.Snapshot{}, err
	}
	if err := loadTable(ctx, r.db, "maintenance", &snap.Maintenance); err != nil {
		return rental.Snapshot{}, err
	}
	return snap, nil
}

func loadTable[T any](ctx context.Context, db *DB, table string, dst *[]T) error {
	rows, err := db.pool.Query(ctx, selectSQL(table))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode %s row: %w", table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}
	*dst = out
	return nil
}

// Apply forwards one store event to the database.
func (r *Repository) Apply(ctx context.Context, ev rental.Event) error {
	if ev.Action == rental.ActionReset {
		snap, ok := ev.Record.(rental.Snapshot)
		if !ok {
			return fmt.Errorf("reset event without snapshot")
		}
		return r.Replace(ctx, snap)
	}

	table, err := tableFor(ev.Kind)
	if err != nil {
		return err
	}

	switch ev.Action {
	case rental.ActionDeleted:
		_, err = r.db.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), ev.ID)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		return nil
	case rental.ActionCreated, rental.ActionUpdated:
		rw, err := rowFor(ev.Record)
		if err != nil {
			return err
		}
		if _, err := r.db.pool.Exec(ctx, upsertSQL(table), rw.ID, rw.Data, rw.CreatedAt, rw.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", table, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
}

// Replace swaps the whole dataset in one transaction.
func (r *Repository) Replace(ctx context.Context, snap rental.Snapshot) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range resetOrder {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	queue := func(table string, recs []any) error {
		for _, rec := range recs {
			rw, err := rowFor(rec)
			if err != nil {
				return err
			}
			batch.Queue(upsertSQL(table), rw.ID, rw.Data, rw.CreatedAt, rw.UpdatedAt)
		}
		return nil
	}
	for _, part := range snapshotParts(snap) {
		if err := queue(part.table, part.records); err != nil {
			return err
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type part struct {
	table   string
	records []any
}

func snapshotParts(snap rental.Snapshot) []part {
	return []part{
		{"apartments", anySlice(snap.Apartments)},
		{"flats", anySlice(snap.Flats)},
		{"tenants", anySlice(snap.Tenants)},
		{"leases", anySlice(snap.Leases)},
		{"payments", anySlice(snap.Payments)},
		{"maintenance", anySlice(snap.Maintenance)},
	}
}

func anySlice[T any](items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

// Mirror returns a store subscriber that writes every event through to the
// database. Failures are logged and otherwise ignored.
func (r *Repository) Mirror(timeout time.Duration) func(rental.Event) {
	return func(ev rental.Event) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ev.Context()), timeout)
		defer cancel()

		if err := r.Apply(ctx, ev); err != nil {
			slog.WarnContext(ctx, "remote write-through failed",
				logger.Component("postgres_mirror"),
				logger.Entity(string(ev.Kind)),
				logger.RecordID(ev.ID),
				logger.Action(string(ev.Action)),
				logger.Error(err),
			)
		}
	}
}
