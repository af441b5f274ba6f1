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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opentrusty/rentals/internal/audit"
	"github.com/opentrusty/rentals/internal/identity"
	"github.com/opentrusty/rentals/internal/observability/logger"
	"github.com/opentrusty/rentals/internal/observability/metrics"
	"github.com/opentrusty/rentals/internal/observability/tracing"
	"github.com/opentrusty/rentals/internal/rental"
	"github.com/opentrusty/rentals/internal/session"
	transportHTTP "github.com/opentrusty/rentals/internal/transport/http"
)

const (
	sessionSweepInterval = time.Hour
	visitorSweepInterval = 10 * time.Minute
	shutdownGracePeriod  = 30 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("starting rentals service", logger.String("version", cfg.Observability.ServiceVersion))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	meter, err := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}

	adapter, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer adapter.Close()

	auditLogger := audit.NewSlogLogger()

	userRepo, err := identity.NewKVRepository(ctx, adapter)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	identityService := identity.NewService(
		userRepo,
		passwordHasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
		identity.WithPasswordMinLength(cfg.Security.PasswordMinLength),
	)

	if cfg.Demo.Enabled {
		created, err := identity.NewBootstrapService(identityService).Bootstrap(ctx, identity.DemoAccounts, cfg.Demo.Password)
		if err != nil {
			return fmt.Errorf("failed to provision demo accounts: %w", err)
		}
		if created > 0 {
			slog.Info(fmt.Sprintf("provisioned %d demo accounts", created), logger.Component("bootstrap"))
		}
	}

	sessionRepo, err := session.NewKVRepository(ctx, adapter)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	sessionService := session.NewService(sessionRepo, cfg.Session.Lifetime, cfg.Session.IdleTimeout)
	tokens := session.NewTokenSigner(cfg.Session.Secret)

	recs := openRecords(ctx, cfg, adapter, meter, true)
	defer recs.Close()
	recs.store.Subscribe(rental.MetricsSubscriber(meter))
	recs.store.Subscribe(rental.AuditSubscriber(auditLogger))

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx, visitorSweepInterval)

	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		tokens,
		recs.store,
		auditLogger,
		meter,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: transportHTTP.ParseSameSite(cfg.Session.CookieSameSite),
		},
	)

	opts := transportHTTP.RouterOptions{
		Metrics:        httpMetrics,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.Web.StaticDir != "" {
		opts.StaticFS = os.DirFS(cfg.Web.StaticDir)
	}
	router := transportHTTP.NewRouter(handler, rateLimiter, opts)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go sweepSessions(ctx, sessionService, identityService)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}

// sweepSessions drops expired sessions and sessions of deleted users every
// sessionSweepInterval until ctx is done.
func sweepSessions(ctx context.Context, sessions *session.Service, users *identity.Service) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := sessions.CleanupExpired(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
		} else if n > 0 {
			slog.InfoContext(ctx, fmt.Sprintf("removed %d expired sessions", n), logger.Component("session"))
		}

		_, err := sessions.PruneOrphans(ctx, func(userID string) bool {
			_, err := users.GetUser(ctx, userID)
			return !errors.Is(err, identity.ErrUserNotFound)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to prune orphaned sessions", logger.Error(err))
		}
	}
}
