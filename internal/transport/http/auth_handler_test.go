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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/rentals/internal/rental"
)

// TestPurpose: Validates the login, current-user and logout flow.
// Scope: Unit Test
// Expected: Login sets a session cookie that authenticates /auth/me until logout destroys the session.
// Test Case ID: LGN-01
func TestAuth_LoginMeLogout(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.login("Admin@Rental.com")
	assert.True(t, cookie.HttpOnly)

	w := env.do(http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[UserResponse](t, w)
	assert.Equal(t, "admin@rental.com", me.Email)
	assert.Equal(t, "admin", me.Role)

	w = env.do(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, sessionCookie(t, w).MaxAge)

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "destroyed session must not authenticate")
}

// TestPurpose: Validates rejection of bad credentials.
// Scope: Unit Test
// Security: Credential checking without user enumeration
// Expected: Unknown users and wrong passwords both return 401 with the same message.
// Test Case ID: LGN-02
func TestAuth_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	unknown := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "nobody@rental.com", Password: testPassword}, nil)
	wrong := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "user@rental.com", Password: "not-the-password"}, nil)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.JSONEq(t, unknown.Body.String(), wrong.Body.String())
}

// TestPurpose: Validates account lockout after repeated failures.
// Scope: Unit Test
// Expected: After the configured number of failures the account answers 423 even with the right password.
// Test Case ID: LGN-03
func TestAuth_Login_Lockout(t *testing.T) {
	env := newTestEnv(t)

	for range 3 {
		w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "user@rental.com", Password: "wrong-password"}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "user@rental.com", Password: testPassword}, nil)
	assert.Equal(t, http.StatusLocked, w.Code)
}

// TestPurpose: Validates self-registration.
// Scope: Unit Test
// Expected: A new account is signed in with the user role; a duplicate email is rejected with 409.
// Test Case ID: REG-01
func TestAuth_Register(t *testing.T) {
	env := newTestEnv(t)

	body := RegisterRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "secret123"}
	w := env.do(http.MethodPost, "/api/v1/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	me := env.do(http.MethodGet, "/api/v1/auth/me", nil, sessionCookie(t, w))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "user", decode[UserResponse](t, me).Role)

	dup := env.do(http.MethodPost, "/api/v1/auth/register", body, nil)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Contains(t, dup.Body.String(), "User with this email already exists")

	weak := env.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{Name: "Al", Email: "al@example.com", Password: "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, weak.Code)
}

// TestPurpose: Validates profile and password settings.
// Scope: Unit Test
// Expected: Profile changes are returned by /settings; the new password works and the old one no longer does.
// Test Case ID: SET-01
func TestSettings_ProfileAndPassword(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	w := env.do(http.MethodPut, "/api/v1/settings/profile", UpdateProfileRequest{Name: "Pat Manager", Email: "pat@rental.com"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/settings", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[SettingsResponse](t, w)
	assert.Equal(t, "Pat Manager", settings.User.Name)
	assert.Equal(t, "pat@rental.com", settings.User.Email)
	assert.Equal(t, 6, settings.PasswordMinLength)

	w = env.do(http.MethodPut, "/api/v1/settings/profile", UpdateProfileRequest{Name: "Pat Manager", Email: "admin@rental.com"}, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/v1/settings/password", ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "brand-new-pw"}, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/settings/password", ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "brand-new-pw"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "pat@rental.com", Password: "brand-new-pw"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates that malformed login bodies are rejected without leaking internals.
// Scope: Unit Test
// Security: Information disclosure prevention (CWE-209)
// Expected: Returns 400 and the body carries no stack or path details.
// Test Case ID: SEC-02
func TestSecurity_ErrorHandling_NoSensitiveDataIsLeaked(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{invalid}`)))
	req.Header.Set("X-CSRF-Token", "test")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := strings.ToLower(w.Body.String())
	for _, pattern := range []string{"panic", "/home/", "goroutine", "runtime.", ".go:", "stack trace"} {
		assert.NotContains(t, body, pattern)
	}
}

// TestPurpose: Validates CSRF protection on state-changing requests.
// Scope: Unit Test
// Security: Cross-Site Request Forgery (CWE-352)
// Expected: A POST without X-CSRF-Token is rejected with 403 before reaching the handler.
// Test Case ID: SEC-04
func TestSecurity_CSRFHeaderRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@rental.com","password":"demo-password"}`))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

// TestPurpose: Validates that forged or absent session cookies do not authenticate.
// Scope: Unit Test
// Security: Session integrity
// Expected: Requests without a cookie or with an unsigned id answer 401.
// Test Case ID: SEC-05
func TestSecurity_ForgedSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/dashboard", nil, &http.Cookie{Name: testCookieName, Value: "0190c5d2-aaaa-7bbb-8ccc-123456789abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that JSON responses include the application/json Content-Type header.
// Scope: Unit Test
// Security: Prevents MIME sniffing attacks
// Expected: /health answers 200 with a JSON body.
// Test Case ID: SEC-10
func TestSecurity_HealthCheck_ReturnsJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "healthy", decode[HealthResponse](t, w).Status)
}

// TestPurpose: Validates the remember me login option.
// Scope: Unit Test
// Expected: Without it the cookie has no Max-Age; with it the cookie lives as long as the session.
// Test Case ID: LGN-04
func TestAuth_Login_RememberMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "user@rental.com", Password: testPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, sessionCookie(t, w).MaxAge)
	assert.NotContains(t, w.Header().Get("Set-Cookie"), "Max-Age")

	w = env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "user@rental.com", Password: testPassword, RememberMe: true}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	remembered := sessionCookie(t, w)
	assert.Equal(t, 24*60*60, remembered.MaxAge)

	me := env.do(http.MethodGet, "/api/v1/auth/me", nil, remembered)
	assert.Equal(t, http.StatusOK, me.Code)
}

// TestPurpose: Validates the request size limit on account endpoints.
// Scope: Unit Test
// Security: Resource exhaustion (CWE-400)
// Expected: Bodies above one MiB are rejected with 400 on every account route.
// Test Case ID: SEC-06
func TestSecurity_OversizedAccountBodies(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("user@rental.com")
	huge := strings.Repeat("a", 1<<20)

	cases := []struct {
		method, path string
		body         any
		cookie       *http.Cookie
	}{
		{http.MethodPost, "/api/v1/auth/register", RegisterRequest{Name: huge, Email: "big@example.com", Password: "secret123"}, nil},
		{http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: huge, Password: testPassword}, nil},
		{http.MethodPut, "/api/v1/settings/profile", UpdateProfileRequest{Name: huge, Email: "user@rental.com"}, cookie},
		{http.MethodPost, "/api/v1/settings/password", ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: huge}, cookie},
	}
	for _, tc := range cases {
		w := env.do(tc.method, tc.path, tc.body, tc.cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String(), tc.path)
	}
}

// TestPurpose: Validates that record changes are attributed to the signed-in user.
// Scope: Unit Test
// Expected: The store event of a create carries the caller's user id.
// Test Case ID: AUD-02
func TestRecords_EventsCarryActor(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")
	me := decode[UserResponse](t, env.do(http.MethodGet, "/api/v1/auth/me", nil, cookie))

	var actors []string
	env.store.Subscribe(func(ev rental.Event) { actors = append(actors, ev.Actor) })

	w := env.do(http.MethodPost, "/api/v1/flats", validFlat(), cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{me.ID}, actors)
}
