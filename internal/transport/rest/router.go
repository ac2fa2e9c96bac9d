package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/kiranvarmap/qms/internal/account"
	"github.com/kiranvarmap/qms/internal/auth"
	"github.com/kiranvarmap/qms/internal/document"
	"github.com/kiranvarmap/qms/internal/inspection"
	"github.com/kiranvarmap/qms/internal/obs"
	"github.com/kiranvarmap/qms/internal/transport/middleware"
	"github.com/kiranvarmap/qms/internal/transport/swagger"
	"github.com/go-chi/chi"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, accountHandler *account.Handler, inspectionHandler *inspection.Handler, documentHandler *document.Handler, metrics *obs.Metrics, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if metrics != nil {
		router.Use(metrics.Instrument)
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	if metrics != nil {
		router.Handle("/metrics", metrics.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public signup route (no auth required)
		if accountHandler != nil {
			r.Post("/signup", accountHandler.Signup)
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				pr.Get("/users/me", authHandler.Me)

				// Account administration (admin only)
				if accountHandler != nil {
					pr.Group(func(ar chi.Router) {
						ar.Use(authHandler.RequireRole("admin"))
						ar.Route("/users", func(ur chi.Router) {
							ur.Get("/", accountHandler.List)         // GET /users
							ur.Get("/{id}", accountHandler.Get)      // GET /users/:id
							ur.Patch("/{id}", accountHandler.Update) // PATCH /users/:id
							ur.Post("/{id}/decision", accountHandler.Decide)
						})
					})
				}

				// Inspection routes
				if inspectionHandler != nil {
					pr.Route("/inspections", func(ir chi.Router) {
						ir.Post("/", inspectionHandler.Create)
						ir.Get("/", inspectionHandler.List)
						ir.Get("/{id}", inspectionHandler.Get)
						ir.Get("/{id}/signatures", inspectionHandler.ListSignatures)
						ir.Post("/{id}/signatures", inspectionHandler.Sign)

						// Revocation is restricted to supervisory roles
						ir.Group(func(rr chi.Router) {
							rr.Use(authHandler.RequireRole("manager", "admin"))
							rr.Delete("/{id}/signatures/{sigID}", inspectionHandler.Revoke)
						})
					})
				}

				// Document sign-off routes
				if documentHandler != nil {
					pr.Route("/documents", func(dr chi.Router) {
						dr.Post("/", documentHandler.Create)
						dr.Get("/", documentHandler.List)
						// my-tasks must register before the {id} wildcard
						dr.Get("/my-tasks", documentHandler.MyTasks)
						dr.Get("/{id}", documentHandler.Get)
						dr.Delete("/{id}", documentHandler.Delete)
						dr.Post("/{id}/sign-requests", documentHandler.AddSigner)
						dr.Post("/{id}/sign-requests/{rid}/sign", documentHandler.Sign)
						dr.Post("/{id}/sign-requests/{rid}/reject", documentHandler.Reject)
						dr.Patch("/{id}/sign-requests/{rid}/placement", documentHandler.UpdatePlacement)
					})
				}
			})
		}
	})
}
