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

// Package rental holds the property-management records (apartments, flats,
// tenants, leases, rent payments, maintenance) and the statistics derived
// from them.
package rental

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/opentrusty/rentals/internal/id"
	"github.com/opentrusty/rentals/internal/kv"
	"github.com/opentrusty/rentals/internal/observability/logger"
)

// DataKey is the namespace under which the snapshot is persisted.
const DataKey = "rental-management-data"

// Banner messages stored as the last error.
const (
	MsgPersistFailed = "Failed to persist data"
	MsgLoadFailed    = "Failed to load saved data"
)

// Action is the kind of change an Event reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionReset   Action = "reset"
)

// Event describes one applied mutation. Record holds the new value for
// created/updated, nil for deleted and the full Snapshot for reset. Actor is
// the user id carried by the mutating context, empty for system changes.
type Event struct {
	Kind       Kind
	Action     Action
	ID         string
	Record     any
	PersistErr error
	Actor      string

	ctx context.Context
}

// Context returns the context of the mutation that produced the event.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type actorKey struct{}

// WithActor marks mutations made with ctx as performed by userID.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id set by WithActor.
func ActorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

func newEvent(ctx context.Context, kind Kind, action Action, id string, rec any) Event {
	return Event{Kind: kind, Action: action, ID: id, Record: rec, Actor: ActorFrom(ctx), ctx: ctx}
}

// Source supplies the initial dataset from an external backend.
type Source interface {
	Load(ctx context.Context) (Snapshot, error)
}

// Origin reports where Load took its data from.
type Origin string

const (
	OriginRemote         Origin = "remote"
	OriginRemoteFallback Origin = "remote_fallback"
	OriginSnapshot       Origin = "snapshot"
	OriginSeed           Origin = "seed"
)

// Store is the single process-wide owner of every record collection.
type Store struct {
	mu      sync.RWMutex
	data    Snapshot
	lastErr string

	adapter kv.Store
	now     func() time.Time
	newID   func() string
	seed    func(now time.Time) Snapshot

	// deliverMu is taken before mu is released, so events reach
	// subscribers in commit order.
	deliverMu sync.Mutex
	subMu     sync.Mutex
	subs      map[int]func(Event)
	nextSub   int
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides UUIDv7 generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithSeed overrides the demo dataset used on first run and reset.
func WithSeed(seed func(now time.Time) Snapshot) Option {
	return func(s *Store) { s.seed = seed }
}

// NewStore creates an empty store persisting through adapter. Call Load to
// populate it.
func NewStore(adapter kv.Store, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		now:     time.Now,
		newID:   id.NewUUIDv7,
		seed:    SeedData,
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load populates the store once at startup. With a remote source the remote
// dataset wins and any failure falls back to seed data. Without one the
// persisted snapshot is used, or seed data when none exists. Load never
// fails the caller; problems are logged and surfaced through LastError.
func (s *Store) Load(ctx context.Context, remote Source) Origin {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remote != nil {
		snap, err := remote.Load(ctx)
		if err != nil {
			slog.WarnContext(ctx, "remote data service unavailable, using seed data",
				logger.Component("rental_store"), logger.Error(err))
			s.data = s.seed(s.now())
			return OriginRemoteFallback
		}
		s.data = snap
		return OriginRemote
	}

	payload, err := s.adapter.Load(ctx, DataKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		s.data = s.seed(s.now())
		if err := s.persistLocked(ctx); err != nil {
			s.lastErr = MsgPersistFailed
		}
		return OriginSeed
	case err != nil:
		slog.ErrorContext(ctx, "failed to read persisted snapshot",
			logger.Component("rental_store"), logger.Error(err))
		s.data = s.seed(s.now())
		s.lastErr = MsgLoadFailed
		return OriginSeed
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		slog.ErrorContext(ctx, "persisted snapshot is corrupt",
			logger.Component("rental_store"), logger.Error(err))
		s.data = s.seed(s.now())
		s.lastErr = MsgLoadFailed
		return OriginSeed
	}
	s.data = snap
	return OriginSnapshot
}

// Reset replaces every collection with seed data and clears the last error.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.data = s.seed(s.now())
	s.lastErr = ""
	ev := newEvent(ctx, "", ActionReset, "", cloneSnapshot(s.data))
	ev.PersistErr = s.commitLocked(ctx)
	s.unlockAndPublish(ev)
}

// Snapshot returns a copy of all collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.data)
}

// LastError returns the banner message of the most recent failure.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *Store) ClearError() {
	s.SetError("")
}

// Subscribe registers fn for every applied mutation. Callbacks run after the
// store lock is released, in registration order per event, and events are
// delivered one at a time in the order the mutations were applied. A
// callback may read from the store but must not mutate it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, key)
		s.subMu.Unlock()
	}
}

// unlockAndPublish releases mu and delivers ev. The caller must hold mu.
func (s *Store) unlockAndPublish(ev Event) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.mu.Unlock()
	s.publish(ev)
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fns := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.subs[k])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// commitLocked persists and records a banner on failure. The in-memory
// change stands either way.
func (s *Store) commitLocked(ctx context.Context) error {
	if err := s.persistLocked(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to persist snapshot",
			logger.Component("rental_store"), logger.Error(err))
		s.lastErr = MsgPersistFailed
		return err
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.adapter.Save(ctx, DataKey, payload)
}

// entity is satisfied by pointers to the record types.
type entity[T any] interface {
	*T
	meta() *Meta
	clone() T
}

func indexOf[T any, P entity[T]](items []T, id string) int {
	for i := range items {
		if P(&items[i]).meta().ID == id {
			return i
		}
	}
	return -1
}

func get[T any, P entity[T]](s *Store, items *[]T, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf[T, P](*items, id); i >= 0 {
		return P(&(*items)[i]).clone(), true
	}
	var zero T
	return zero, false
}

func list[T any, P entity[T]](s *Store, items *[]T, keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(*items))
	for i := range *items {
		if keep == nil || keep((*items)[i]) {
			out = append(out, P(&(*items)[i]).clone())
		}
	}
	return out
}

func add[T any, P entity[T]](ctx context.Context, s *Store, kind Kind, items *[]T, rec T) T {
	s.mu.Lock()
	now := s.now().UTC()
	m := P(&rec).meta()
	m.ID = s.newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	*items = append(*items, P(&rec).clone())

	ev := newEvent(ctx, kind, ActionCreated, m.ID, P(&rec).clone())
	ev.PersistErr = s.commitLocked(ctx)
	s.unlockAndPublish(ev)
	return rec
}

func update[T any, P entity[T]](ctx context.Context, s *Store, kind Kind, items *[]T, id string, patch Patch) error {
	s.mu.Lock()
	i := indexOf[T, P](*items, id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}

	merged, err := merge((*items)[i], patch)
	if err != nil {
		s.lastErr = fmt.Sprintf("Failed to update %s", kind)
		s.mu.Unlock()
		return err
	}
	P(&merged).meta().UpdatedAt = s.now().UTC()
	(*items)[i] = merged

	ev := newEvent(ctx, kind, ActionUpdated, id, P(&merged).clone())
	ev.PersistErr = s.commitLocked(ctx)
	s.unlockAndPublish(ev)
	return nil
}

func remove[T any, P entity[T]](ctx context.Context, s *Store, kind Kind, items *[]T, id string) error {
	s.mu.Lock()
	i := indexOf[T, P](*items, id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	*items = slices.Delete(*items, i, i+1)

	ev := newEvent(ctx, kind, ActionDeleted, id, nil)
	ev.PersistErr = s.commitLocked(ctx)
	s.unlockAndPublish(ev)
	return nil
}

// merge overlays patch onto current through their JSON form. Identity and
// timestamps are never taken from the patch. Unknown keys are dropped.
func merge[T any](current T, patch Patch) (T, error) {
	var zero T

	base, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	for k, v := range patch {
		switch k {
		case "id", "created_at", "updated_at":
			continue
		}
		fields[k] = v
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return out, nil
}

// Decode builds a new record of type T from form fields.
func Decode[T any](fields Patch) (T, error) {
	var zero T
	return merge(zero, fields)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func cloneSnapshot(s Snapshot) Snapshot {
	return Snapshot{
		Apartments:  cloneAll(s.Apartments),
		Flats:       cloneAll(s.Flats),
		Tenants:     cloneAll(s.Tenants),
		Leases:      cloneAll(s.Leases),
		Payments:    cloneAll(s.Payments),
		Maintenance: cloneAll(s.Maintenance),
	}
}

func cloneAll[T any, P entity[T]](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i := range items {
		out[i] = P(&items[i]).clone()
	}
	return out
}
