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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/opentrusty/rentals/internal/audit"
	"github.com/opentrusty/rentals/internal/identity"
	"github.com/opentrusty/rentals/internal/observability/logger"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Name     string `json:"name" example:"Jane Doe"`
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"secret123"`
}

// Register creates an account with the user role and signs it in.
// @Summary Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, identity.ErrInvalidEmail),
			errors.Is(err, identity.ErrInvalidName),
			errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to register user", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	if !h.startSession(w, r, user, false) {
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email      string `json:"email" example:"admin@rental.com"`
	Password   string `json:"password" example:"secret123"`
	RememberMe bool   `json:"remember_me" example:"false"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and create a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountLocked) {
			h.recordLogin(r, "locked")
			respondError(w, http.StatusLocked, "account temporarily locked")
			return
		}
		h.recordLogin(r, "failure")
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !h.startSession(w, r, user, req.RememberMe) {
		return
	}
	h.recordLogin(r, "success")
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// startSession creates a session for user and sets its cookie. A persistent
// cookie lives as long as the session; otherwise the browser drops it on exit.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *identity.User, persistent bool) bool {
	sess, err := h.sessionService.Create(r.Context(), user.ID, getClientIP(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return false
	}
	token, err := h.tokens.Sign(sess)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to sign session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return false
	}
	var maxAge time.Duration
	if persistent {
		maxAge = sess.ExpiresAt.Sub(sess.CreatedAt)
	}
	h.setSessionCookie(w, token, maxAge)
	return true
}

func auditEvent(r *http.Request, eventType, actorID, resource string) audit.Event {
	return audit.Event{
		Type:      eventType,
		ActorID:   actorID,
		Resource:  resource,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (h *Handler) recordLogin(r *http.Request, result string) {
	if h.logins != nil {
		h.logins.RecordLogin(r.Context(), result)
	}
}

// Logout handles user logout
// @Summary Logout
// @Description Destroy the current session
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.getSessionFromCookie(r); token != "" {
		if sessionID, userID, err := h.tokens.Parse(token); err == nil {
			if err := h.sessionService.Destroy(r.Context(), sessionID); err != nil {
				slog.ErrorContext(r.Context(), "failed to destroy session", logger.Error(err))
			}
			h.auditLogger.Log(r.Context(), auditEvent(r, audit.TypeLogout, userID, "session"))
		}
	}

	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentUser returns the current authenticated user identity
// @Summary Get Current User
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// SettingsResponse is the body of GET /settings.
type SettingsResponse struct {
	User              UserResponse `json:"user"`
	PasswordMinLength int          `json:"password_min_length"`
}

// GetSettings returns the signed-in user's profile.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, SettingsResponse{
		User:              toUserResponse(user),
		PasswordMinLength: h.identityService.PasswordMinLength(),
	})
}

// UpdateProfileRequest represents profile change data
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile changes name and email of the signed-in user.
// @Summary Update Profile
// @Tags Settings
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body UpdateProfileRequest true "New Profile"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /settings/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.UpdateProfile(r.Context(), GetUserID(r.Context()), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrInvalidName):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, identity.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			slog.ErrorContext(r.Context(), "failed to update profile", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword changes the user password
// @Summary Change Password
// @Tags Settings
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ChangePasswordRequest true "Password Change Data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /settings/password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.identityService.ChangePassword(r.Context(), GetUserID(r.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid current password")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "new password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to change password", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}
