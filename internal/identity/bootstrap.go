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
	"errors"
	"fmt"
	"log/slog"

	"github.com/opentrusty/rentals/internal/observability/logger"
)

// DemoAccount is a user provisioned on first run.
type DemoAccount struct {
	Name  string
	Email string
	Role  Role
}

// DemoAccounts are the three sample users, one per role.
var DemoAccounts = []DemoAccount{
	{Name: "Admin User", Email: "admin@rental.com", Role: RoleAdmin},
	{Name: "Property Manager", Email: "manager@rental.com", Role: RoleManager},
	{Name: "Regular User", Email: "user@rental.com", Role: RoleUser},
}

// BootstrapService provisions the demo accounts.
type BootstrapService struct {
	identityService *Service
}

func NewBootstrapService(identityService *Service) *BootstrapService {
	return &BootstrapService{identityService: identityService}
}

// Bootstrap creates every missing account in accounts with password.
// Existing accounts, including ones whose password was changed, are left
// untouched. It returns the number of accounts created.
func (s *BootstrapService) Bootstrap(ctx context.Context, accounts []DemoAccount, password string) (int, error) {
	created := 0
	for _, acct := range accounts {
		if _, err := s.identityService.GetByEmail(ctx, acct.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return created, fmt.Errorf("failed to look up %s: %w", acct.Email, err)
		}

		user, err := s.identityService.Provision(ctx, acct.Name, acct.Email, password, acct.Role)
		if err != nil {
			return created, fmt.Errorf("failed to provision %s: %w", acct.Email, err)
		}
		slog.InfoContext(ctx, "provisioned demo account",
			logger.Component("bootstrap"), logger.UserID(user.ID), logger.Email(user.Email), logger.Role(string(user.Role)))
		created++
	}
	return created, nil
}
