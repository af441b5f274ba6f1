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

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/opentrusty/rentals/internal/kv"
)

// AuthKey is the namespace under which sessions are persisted.
const AuthKey = "rental-auth"

// KVRepository keeps all sessions in one JSON document under AuthKey.
// Writes whose save fails are undone in memory.
type KVRepository struct {
	store kv.Store

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewKVRepository loads persisted sessions. An unreadable document is
// discarded so a corrupt store signs everyone out instead of failing
// startup.
func NewKVRepository(ctx context.Context, store kv.Store) (*KVRepository, error) {
	r := &KVRepository{store: store, sessions: map[string]*Session{}}

	payload, err := store.Load(ctx, AuthKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	var list []*Session
	if err := json.Unmarshal(payload, &list); err != nil {
		return r, nil
	}
	for _, s := range list {
		r.sessions[s.ID] = s
	}
	return r, nil
}

func (r *KVRepository) Create(ctx context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.sessions[session.ID]
	s := *session
	r.sessions[s.ID] = &s
	if err := r.saveLocked(ctx); err != nil {
		r.restoreLocked(session.ID, prev, had)
		return err
	}
	return nil
}

func (r *KVRepository) Get(_ context.Context, sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (r *KVRepository) Update(ctx context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sessions[session.ID]
	if !ok {
		return ErrSessionNotFound
	}
	s := *session
	r.sessions[s.ID] = &s
	if err := r.saveLocked(ctx); err != nil {
		r.sessions[s.ID] = prev
		return err
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	if err := r.saveLocked(ctx); err != nil {
		r.sessions[sessionID] = prev
		return err
	}
	return nil
}

func (r *KVRepository) DeleteMatching(ctx context.Context, match func(*Session) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := map[string]*Session{}
	for id, s := range r.sessions {
		if match(s) {
			removed[id] = s
			delete(r.sessions, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := r.saveLocked(ctx); err != nil {
		for id, s := range removed {
			r.sessions[id] = s
		}
		return 0, err
	}
	return len(removed), nil
}

func (r *KVRepository) restoreLocked(id string, prev *Session, had bool) {
	if had {
		r.sessions[id] = prev
		return
	}
	delete(r.sessions, id)
}

func (r *KVRepository) saveLocked(ctx context.Context) error {
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := r.store.Save(ctx, AuthKey, payload); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
