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
	"errors"
	"fmt"
	"time"

	"github.com/opentrusty/rentals/internal/id"
)

// Service manages session lifecycle
type Service struct {
	repo        Repository
	lifetime    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a session service. Sessions live for lifetime from
// creation and are dropped after idleTimeout without requests.
func NewService(repo Repository, lifetime, idleTimeout time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		lifetime:    lifetime,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session for userID.
func (s *Service) Create(ctx context.Context, userID, ipAddress, userAgent string) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:         id.NewUUIDv7(),
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get returns a live session. Expired or idle sessions are deleted and
// reported as ErrSessionExpired.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sess.IsExpired(now) || sess.IsIdle(now, s.idleTimeout) {
		_ = s.repo.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Refresh records activity on the session.
func (s *Service) Refresh(ctx context.Context, sessionID string) error {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.LastSeenAt = s.now().UTC()
	return s.repo.Update(ctx, sess)
}

// Destroy ends a session. Unknown ids are not an error.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// DestroyForUser ends every session of userID.
func (s *Service) DestroyForUser(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteMatching(ctx, func(sess *Session) bool { return sess.UserID == userID })
}

// CleanupExpired removes expired and idle sessions.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	now := s.now()
	return s.repo.DeleteMatching(ctx, func(sess *Session) bool {
		return sess.IsExpired(now) || sess.IsIdle(now, s.idleTimeout)
	})
}

// PruneOrphans removes sessions whose user no longer passes exists.
func (s *Service) PruneOrphans(ctx context.Context, exists func(userID string) bool) (int, error) {
	return s.repo.DeleteMatching(ctx, func(sess *Session) bool { return !exists(sess.UserID) })
}

// Lifetime returns the configured absolute lifetime.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}
