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

// Package identity manages dashboard users: registration, password login
// with lockout, profile and password changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/opentrusty/rentals/internal/audit"
	"github.com/opentrusty/rentals/internal/id"
)

// DefaultPasswordMinLength is the shortest password accepted for login,
// registration and password changes.
const DefaultPasswordMinLength = 6

// Service provides identity-related business logic
type Service struct {
	repo               UserRepository
	hasher             *PasswordHasher
	auditLogger        audit.Logger
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
	passwordMinLength  int
	now                func() time.Time
}

type Option func(*Service)

// WithPasswordMinLength overrides DefaultPasswordMinLength.
func WithPasswordMinLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.passwordMinLength = n
		}
	}
}

// WithClock overrides time.Now for lockout decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new identity service. A lockoutMaxAttempts of zero
// disables lockout.
func NewService(
	repo UserRepository,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		repo:               repo,
		hasher:             hasher,
		auditLogger:        auditLogger,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
		passwordMinLength:  DefaultPasswordMinLength,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with the user role and a password credential.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	return s.Provision(ctx, name, email, password, RoleUser)
}

// Provision creates a user with the given role.
func (s *Service) Provision(ctx context.Context, name, email, password string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if len([]rune(name)) < 2 {
		return nil, ErrInvalidName
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !s.isStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:        id.NewUUIDv7(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	creds := &Credentials{UserID: user.ID, PasswordHash: hash, UpdatedAt: now}
	if err := s.repo.Create(ctx, user, creds); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{audit.AttrEmail: email, audit.AttrRole: string(role)},
	})
	return user, nil
}

// Authenticate authenticates a user with email and password
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	if len(password) < s.passwordMinLength {
		s.loginFailed(ctx, "", email, "password_too_short", 0)
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.loginFailed(ctx, "", email, "user_not_found", 0)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		s.loginFailed(ctx, user.ID, email, "locked_out", user.FailedLoginAttempts)
		return nil, ErrAccountLocked
	}

	credentials, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if s.lockoutMaxAttempts > 0 && attempts >= s.lockoutMaxAttempts {
			until := now.Add(s.lockoutDuration)
			lockedUntil = &until
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUserLocked,
				ActorID:  user.ID,
				Resource: "login",
				Metadata: map[string]any{audit.AttrAttempts: attempts},
			})
		}
		_ = s.repo.UpdateLockout(ctx, user.ID, attempts, lockedUntil)
		s.loginFailed(ctx, user.ID, email, "invalid_password", attempts)
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.repo.UpdateLockout(ctx, user.ID, 0, nil)
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  user.ID,
		Resource: "login",
	})
	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, userID, email, reason string, attempts int) {
	meta := map[string]any{audit.AttrReason: reason, audit.AttrEmail: email}
	if attempts > 0 {
		meta[audit.AttrAttempts] = attempts
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginFailed,
		ActorID:  userID,
		Resource: "login",
		Metadata: meta,
	})
}

// GetByEmail retrieves a user by email
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes name and email. The email must stay unique.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if len([]rune(name)) < 2 {
		return nil, ErrInvalidName
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if email != user.Email {
		if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, ErrUserAlreadyExists
		}
	}

	user.Name = name
	user.Email = email
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeProfileUpdated,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{audit.AttrEmail: email},
	})
	return user, nil
}

// ChangePassword changes user password
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	credentials, err := s.repo.GetCredentials(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, credentials.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if !s.isStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		ActorID:  userID,
		Resource: "user",
	})
	return nil
}

// PasswordMinLength returns the configured minimum.
func (s *Service) PasswordMinLength() int {
	return s.passwordMinLength
}

func (s *Service) isStrongPassword(password string) bool {
	return len(password) >= s.passwordMinLength
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at+1:], ".")
}
