// @title Rentals API
// @version 1.0.0
// @description Property rental management dashboard

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name rentals_session

package http

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/opentrusty/rentals/internal/audit"
	"github.com/opentrusty/rentals/internal/identity"
	"github.com/opentrusty/rentals/internal/observability/metrics"
	"github.com/opentrusty/rentals/internal/rental"
	"github.com/opentrusty/rentals/internal/session"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, result string)
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	sessionService  *session.Service
	tokens          *session.TokenSigner
	store           *rental.Store
	auditLogger     audit.Logger
	logins          LoginRecorder
	sessionConfig   SessionConfig
	now             func() time.Time
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// NewHandler creates a new HTTP handler. logins may be nil.
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	tokens *session.TokenSigner,
	store *rental.Store,
	auditLogger audit.Logger,
	logins LoginRecorder,
	sessionConfig SessionConfig,
) *Handler {
	return &Handler{
		identityService: identityService,
		sessionService:  sessionService,
		tokens:          tokens,
		store:           store,
		auditLogger:     auditLogger,
		logins:          logins,
		sessionConfig:   sessionConfig,
		now:             time.Now,
	}
}

// RouterOptions are the optional parts of the router.
type RouterOptions struct {
	Metrics        *metrics.HTTPMetrics
	RequestTimeout time.Duration
	StaticFS       fs.FS
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.HealthCheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.CSRFMiddleware)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)
			r.Get("/dashboard", h.Dashboard)

			r.Route("/apartments", func(r chi.Router) {
				mountRecords(r, h.apartments())
				r.Get("/{id}/stats", h.ApartmentStats)
				r.Get("/{id}/flats", h.ApartmentFlats)
			})
			r.Route("/flats", func(r chi.Router) {
				mountRecords(r, h.flats())
				r.Get("/{id}/tenants", h.FlatTenants)
				r.Get("/{id}/leases", h.FlatLeases)
			})
			r.Route("/tenants", func(r chi.Router) {
				mountRecords(r, h.tenants())
				r.Get("/{id}/leases", h.TenantLeases)
				r.Get("/{id}/payments", h.TenantPayments)
			})
			r.Route("/leases", func(r chi.Router) {
				mountRecords(r, h.leases())
				r.Get("/{id}/payments", h.LeasePayments)
			})
			r.Route("/payments", func(r chi.Router) {
				mountRecords(r, h.payments())
			})
			r.Route("/maintenance", func(r chi.Router) {
				mountRecords(r, h.maintenance())
			})

			r.Get("/settings", h.GetSettings)
			r.Put("/settings/profile", h.UpdateProfile)
			r.Post("/settings/password", h.ChangePassword)

			r.Get("/status", h.Status)
			r.Delete("/status/error", h.ClearStatusError)

			r.With(RequireRole(string(identity.RoleAdmin))).Post("/admin/reset", h.ResetData)
		})
	})

	if opts.StaticFS != nil {
		r.Handle("/*", SPAHandler{StaticFS: opts.StaticFS})
	}

	return r
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "rentals",
	})
}

// Helper functions
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    token,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// ParseSameSite maps a config value onto http.SameSite.
func ParseSameSite(v string) http.SameSite {
	switch v {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
