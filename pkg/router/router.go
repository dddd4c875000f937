package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/plannr/plannr-backend/pkg/client"
	pkgconfig "github.com/plannr/plannr-backend/pkg/config"
	apperrors "github.com/plannr/plannr-backend/pkg/errors"
	"github.com/plannr/plannr-backend/pkg/externalprovider"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/plannr/plannr-backend/pkg/role"
	"github.com/plannr/plannr-backend/pkg/user"
)

// Config holds all the dependencies and handlers needed to setup routes
type Config struct {
	LoginHandle  login.Handle
	GoogleHandle externalprovider.Handle
	RoleHandle   role.Handle
	UserHandle   user.Handle

	// Session authentication
	Tokens client.TokenValidator
	Users  client.UserLoader

	// HealthCheck reports whether the identity store is reachable. Optional.
	HealthCheck func(ctx context.Context) error

	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimit      pkgconfig.RateLimitConfig
}

// NewRouter returns a chi router with the base middleware stack and every
// route mounted
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(r, cfg)
	return r
}

// SetupRoutes mounts the auth, role, user and health routes on router
func SetupRoutes(router chi.Router, cfg Config) {
	session := client.SessionMiddleware(cfg.Tokens, cfg.Users)
	loginLimit := limiter(cfg.RateLimit, cfg.RateLimit.LoginLimit)
	signupLimit := limiter(cfg.RateLimit, cfg.RateLimit.SignupLimit)

	router.Get("/healthz", healthz(cfg.HealthCheck))

	router.Route("/auth", func(r chi.Router) {
		r.With(signupLimit).Post("/register", cfg.LoginHandle.Register)
		r.With(loginLimit).Post("/login", cfg.LoginHandle.Login)
		r.With(loginLimit).Post("/google", cfg.GoogleHandle.Google)
		r.With(session).Get("/me", cfg.LoginHandle.Me)
	})

	router.Route("/roles", func(r chi.Router) {
		r.Get("/", cfg.RoleHandle.List)

		r.Group(func(r chi.Router) {
			r.Use(session)
			r.Post("/", cfg.RoleHandle.Create)
			r.Get("/{id}", cfg.RoleHandle.Get)
			r.Put("/{id}", cfg.RoleHandle.Update)
			r.Delete("/{id}", cfg.RoleHandle.Delete)
			r.Get("/{id}/permissions", cfg.RoleHandle.Permissions)
			r.Patch("/{id}/permissions/{permissionId}", cfg.RoleHandle.SetGrant)
		})
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(session)
		r.Get("/", cfg.UserHandle.List)
		r.Get("/{id}", cfg.UserHandle.Get)
		r.Put("/{id}", cfg.UserHandle.Update)
		r.Patch("/{id}/role", cfg.UserHandle.UpdateRole)
		r.Patch("/{id}/status", cfg.UserHandle.UpdateStatus)
		r.Delete("/{id}", cfg.UserHandle.Delete)
	})
}

// limiter returns a per-IP rate limit, or a pass-through when limiting is off
func limiter(cfg pkgconfig.RateLimitConfig, limit int) func(http.Handler) http.Handler {
	if !cfg.Enabled || limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("Rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, apperrors.ErrorResponse{Detail: "Too many requests"})
		}),
	)
}

type healthResponse struct {
	Status string `json:"status"`
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.Error("Health check failed", "err", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, healthResponse{Status: "unavailable"})
				return
			}
		}
		render.JSON(w, r, healthResponse{Status: "ok"})
	}
}

// requestLogger logs one line per request through slog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
