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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opentrusty/rentals/internal/audit"
	"github.com/opentrusty/rentals/internal/identity"
	"github.com/opentrusty/rentals/internal/kv"
	"github.com/opentrusty/rentals/internal/rental"
	"github.com/opentrusty/rentals/internal/session"
)

const (
	testPassword   = "demo-password"
	testCookieName = "rentals_session"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t      *testing.T
	router http.Handler
	store  *rental.Store
}

// newTestEnv wires the real services over an in-memory adapter with the
// demo accounts and seed data loaded.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	mem := kv.NewMemory()

	users, err := identity.NewKVRepository(ctx, mem)
	require.NoError(t, err)
	ids := identity.NewService(users, identity.NewPasswordHasher(8*1024, 1, 1, 16, 32), audit.Nop{}, 3, 15*time.Minute)
	_, err = identity.NewBootstrapService(ids).Bootstrap(ctx, identity.DemoAccounts, testPassword)
	require.NoError(t, err)

	sessRepo, err := session.NewKVRepository(ctx, mem)
	require.NoError(t, err)
	sessions := session.NewService(sessRepo, 24*time.Hour, 30*time.Minute)

	store := rental.NewStore(mem, rental.WithClock(func() time.Time { return fixedNow }))
	store.Load(ctx, nil)

	h := NewHandler(ids, sessions, session.NewTokenSigner("test-secret-0123456789"), store, audit.Nop{}, nil, SessionConfig{
		CookieName:     testCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
	h.now = func() time.Time { return fixedNow }

	return &testEnv{
		t:      t,
		router: NewRouter(h, NewRateLimiter(1000, 1000), RouterOptions{}),
		store:  store,
	}
}

// do sends a request with a CSRF header and the optional session cookie.
func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", "test")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(email string) *http.Cookie {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: email, Password: testPassword}, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(e.t, w)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testCookieName)
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
