package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"lodge_archive/internal/api/handler"
	"lodge_archive/internal/api/middleware"
	"lodge_archive/internal/app/service"
	"lodge_archive/internal/common/security"
	"lodge_archive/internal/platform/config"
)

func NewRouter(
	auth *middleware.Auth,
	authService *service.AuthService,
	resetService *service.PasswordResetService,
	workService *service.WorkService,
	adminService *service.AdminService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// Verifies the bearer token when present and puts claims in context; the
	// Authenticator middleware on protected groups enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService, resetService)
	workHandler := handler.NewWorkHandler(workService, config.AppConfig.MaxUploadBytes)
	adminHandler := handler.NewAdminHandler(adminService)

	r.Route("/api", func(api chi.Router) {
		// Public
		api.Group(func(public chi.Router) {
			authHandler.RegisterPublicRoutes(public)
		})

		// Authenticated (approved accounts only)
		api.Group(func(authed chi.Router) {
			authed.Use(auth.Authenticator)

			authHandler.RegisterProfileRoutes(authed)
			workHandler.RegisterRoutes(authed)

			// Tier changes are open to super-admins and masters; the policy
			// engine decides per actor inside the service.
			adminHandler.RegisterTierRoutes(authed)

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(auth.AdminOnly)
				adminHandler.RegisterAdminRoutes(admin)
			})

			authed.Route("/super-admin", func(super chi.Router) {
				super.Use(auth.SuperAdminOnly)
				adminHandler.RegisterSuperAdminRoutes(super)
			})
		})
	})

	return r
}
