package http

import (
	"net/http"

	"github.com/go-broadcast-api/internal/application/broadcast"
	"github.com/go-broadcast-api/internal/application/notification"
	"github.com/go-broadcast-api/internal/application/session"
	"github.com/go-broadcast-api/internal/application/user"
	"github.com/go-broadcast-api/internal/config"
	"github.com/go-broadcast-api/internal/domain"
	"github.com/go-broadcast-api/internal/transport/http/handler"
	appmiddleware "github.com/go-broadcast-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     deps.SessionRepo,
		UserRepo:        deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		SessionLifetime: cfg.SessionLifetime,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	userDeps := user.ServiceDeps{Repo: deps.UserRepo, Sessions: deps.SessionRepo}
	if deps.AvatarStore != nil {
		userDeps.Avatars = deps.AvatarStore
	}
	userSvc := user.NewService(userDeps)
	notifSvc := notification.NewService(deps.NotificationRepo)
	broadcastDeps := broadcast.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		UserRepo:         deps.UserRepo,
		AvatarURLTTL:     cfg.AvatarURLTTL,
	}
	if deps.AvatarStore != nil {
		broadcastDeps.Avatars = deps.AvatarStore
	}
	broadcastSvc := broadcast.NewService(broadcastDeps)

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider, sessionSvc)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	broadcastH := handler.NewBroadcastHandler(broadcastSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated member
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}/avatar", userH.UploadAvatar)
			r.Get("/notifications", notifH.List)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)
			r.Put("/notifications/{id}/archive", notifH.Archive)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Put("/users/{id}/status", userH.UpdateStatus)

				r.Post("/broadcasts", broadcastH.Send)
				r.Get("/broadcasts", broadcastH.List)
				r.Get("/broadcasts/{id}", broadcastH.Detail)
				r.Delete("/broadcasts/{id}", broadcastH.Delete)
			})
		})
	})

	return r
}
