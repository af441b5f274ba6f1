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

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opentrusty/rentals/internal/kv"
)

// UsersKey is the namespace under which accounts are persisted.
const UsersKey = "rental-users"

type userRecord struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                Role       `json:"role"`
	PasswordHash        string     `json:"password_hash,omitempty"`
	PasswordUpdatedAt   time.Time  `json:"password_updated_at,omitzero"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (r *userRecord) user() *User {
	u := &User{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		Role:                r.Role,
		FailedLoginAttempts: r.FailedLoginAttempts,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.LockedUntil != nil {
		t := *r.LockedUntil
		u.LockedUntil = &t
	}
	return u
}

// KVRepository keeps every account in one JSON document under UsersKey.
// Each write saves the whole document; a failed save leaves memory as it
// was before the write.
type KVRepository struct {
	store kv.Store

	mu    sync.Mutex
	users []*userRecord
}

// NewKVRepository loads the account document from store. A missing
// document starts an empty repository.
func NewKVRepository(ctx context.Context, store kv.Store) (*KVRepository, error) {
	r := &KVRepository{store: store}

	payload, err := store.Load(ctx, UsersKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := json.Unmarshal(payload, &r.users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return r, nil
}

func (r *KVRepository) Create(ctx context.Context, user *User, credentials *Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findEmail(user.Email) != nil {
		return ErrUserAlreadyExists
	}
	r.users = append(r.users, &userRecord{
		ID:                user.ID,
		Name:              user.Name,
		Email:             normalizeEmail(user.Email),
		Role:              user.Role,
		PasswordHash:      credentials.PasswordHash,
		PasswordUpdatedAt: credentials.UpdatedAt,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	})
	if err := r.saveLocked(ctx); err != nil {
		r.users = r.users[:len(r.users)-1]
		return err
	}
	return nil
}

func (r *KVRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec := r.findID(id); rec != nil {
		return rec.user(), nil
	}
	return nil, ErrUserNotFound
}

func (r *KVRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec := r.findEmail(email); rec != nil {
		return rec.user(), nil
	}
	return nil, ErrUserNotFound
}

func (r *KVRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findID(user.ID)
	if rec == nil {
		return ErrUserNotFound
	}
	if other := r.findEmail(user.Email); other != nil && other.ID != user.ID {
		return ErrUserAlreadyExists
	}
	prev := *rec
	rec.Name = user.Name
	rec.Email = normalizeEmail(user.Email)
	rec.Role = user.Role
	rec.UpdatedAt = user.UpdatedAt
	if err := r.saveLocked(ctx); err != nil {
		*rec = prev
		return err
	}
	return nil
}

func (r *KVRepository) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	return r.mutate(ctx, userID, func(rec *userRecord) {
		rec.FailedLoginAttempts = failedAttempts
		rec.LockedUntil = lockedUntil
	})
}

func (r *KVRepository) GetCredentials(_ context.Context, userID string) (*Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findID(userID)
	if rec == nil || rec.PasswordHash == "" {
		return nil, ErrUserNotFound
	}
	return &Credentials{UserID: rec.ID, PasswordHash: rec.PasswordHash, UpdatedAt: rec.PasswordUpdatedAt}, nil
}

func (r *KVRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	return r.mutate(ctx, userID, func(rec *userRecord) {
		rec.PasswordHash = passwordHash
		rec.PasswordUpdatedAt = time.Now().UTC()
	})
}

func (r *KVRepository) mutate(ctx context.Context, userID string, fn func(*userRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findID(userID)
	if rec == nil {
		return ErrUserNotFound
	}
	prev := *rec
	fn(rec)
	if err := r.saveLocked(ctx); err != nil {
		*rec = prev
		return err
	}
	return nil
}

func (r *KVRepository) findID(id string) *userRecord {
	for _, rec := range r.users {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (r *KVRepository) findEmail(email string) *userRecord {
	email = normalizeEmail(email)
	for _, rec := range r.users {
		if rec.Email == email {
			return rec
		}
	}
	return nil
}

func (r *KVRepository) saveLocked(ctx context.Context) error {
	payload, err := json.Marshal(r.users)
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := r.store.Save(ctx, UsersKey, payload); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}
