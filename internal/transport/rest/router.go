package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/travelcrm/travel-crm/api"
	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/application"
	"github.com/travelcrm/travel-crm/internal/audit"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/client"
	"github.com/travelcrm/travel-crm/internal/organization"
	"github.com/travelcrm/travel-crm/internal/transport/middleware"
	"github.com/travelcrm/travel-crm/internal/transport/swagger"
	"github.com/travelcrm/travel-crm/internal/user"
	"github.com/travelcrm/travel-crm/internal/web"
)

// Dependencies is everything the router mounts. Nil handlers leave their routes unmounted.
type Dependencies struct {
	DB     *sql.DB
	Config *internal.Config
	Logger *slog.Logger

	Guard *auth.Guard

	Auth          *auth.Handler
	Users         *user.Handler
	Organizations *organization.Handler
	Clients       *client.Handler
	Applications  *application.Handler
	Audit         *audit.Handler
	Web           *web.Handler
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	cfg := deps.Config
	logger := deps.Logger
	guard := deps.Guard

	healthHandler := NewHealthHandler(deps.DB)
	systemHandler := NewSystemHandler(cfg.Security, logger)

	// Apply global middleware
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	if cfg.Observability.Metrics.Enabled {
		router.Use(middleware.Metrics)
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	loginLimit := middleware.LoginRateLimit(cfg.Security.LoginRateLimit, logger)

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/ping", healthHandler.Ping)

		if deps.Auth != nil {
			r.Route("/auth", func(ar chi.Router) {
				ar.With(loginLimit).Post("/login", deps.Auth.Login)
				ar.Post("/refresh", deps.Auth.RefreshToken)
				ar.Post("/logout", guard.Authenticated(deps.Auth.Logout))
				ar.Get("/me", guard.Authenticated(deps.Auth.Me))
				ar.Get("/allowed-roles", guard.Authenticated(deps.Auth.AllowedRoles))

				if deps.Users != nil {
					ar.Post("/register", guard.Permission(auth.PermCreateUser, deps.Users.Register))
					ar.With(loginLimit).Post("/public-register", deps.Users.PublicRegister)
				}
			})
		}

		if deps.Users != nil {
			r.Route("/users", func(ur chi.Router) {
				ur.Get("/", guard.Permission(auth.PermViewAllUsers, deps.Users.ListUsers))
				ur.Get("/{id}", guard.Require(auth.RequireMinimumRole(auth.RoleSupervisor), deps.Users.GetUser))
				ur.Delete("/{id}", guard.Permission(auth.PermDeleteUser, deps.Users.DeleteUser))
				ur.Patch("/{id}/role", guard.Permission(auth.PermAssignRoles, deps.Users.ChangeRole))
			})
		}

		if deps.Organizations != nil {
			r.Route("/organizations", func(or chi.Router) {
				or.Get("/", guard.Authenticated(deps.Organizations.ListOrganizations))
				or.Post("/", guard.Permission(auth.PermSystemSettings, deps.Organizations.CreateOrganization))
			})
		}

		if deps.Clients != nil {
			r.Route("/clients", func(cr chi.Router) {
				cr.Post("/", guard.Permission(auth.PermCreateClient, deps.Clients.CreateClient))
				cr.Get("/", guard.Authenticated(deps.Clients.ListClients))
				cr.Get("/{id}", guard.Authenticated(deps.Clients.GetClient))
				cr.Put("/{id}", guard.Permission(auth.PermEditClient, deps.Clients.UpdateClient))
				cr.Delete("/{id}", guard.Permission(auth.PermDeleteClient, deps.Clients.DeleteClient))
			})
		}

		if deps.Applications != nil {
			r.Route("/applications", func(pr chi.Router) {
				pr.Post("/", guard.Permission(auth.PermCreateApplication, deps.Applications.CreateApplication))
				pr.Get("/", guard.Authenticated(deps.Applications.ListApplications))
				pr.Get("/{id}", guard.Authenticated(deps.Applications.GetApplication))
				pr.Put("/{id}", guard.Permission(auth.PermEditApplication, deps.Applications.UpdateApplication))
				pr.Patch("/{id}/status", guard.Permission(auth.PermEditApplication, deps.Applications.UpdateStatus))
				pr.Patch("/{id}/assign", guard.Permission(auth.PermAssignApplication, deps.Applications.AssignApplication))
				pr.Delete("/{id}", guard.Permission(auth.PermDeleteApplication, deps.Applications.DeleteApplication))
			})
			r.Get("/reports/applications", guard.Permission(auth.PermGenerateReports, deps.Applications.ApplicationsReport))
		}

		r.Route("/system", func(sr chi.Router) {
			sr.Get("/settings", guard.Role([]auth.Role{auth.RoleAdmin}, systemHandler.Settings))
			if deps.Audit != nil {
				sr.Get("/logs", guard.Permission(auth.PermViewLogs, deps.Audit.ListLogs))
			}
		})
	})

	if deps.Web != nil {
		webGuard := guard.With(auth.WithUnauthenticatedHandler(web.RedirectToLogin))

		router.With(loginLimit).Post(web.LoginPath, deps.Web.Login)
		router.Get("/logout", deps.Web.Logout)
		router.Get(web.DashboardPath, webGuard.Authenticated(deps.Web.Dashboard))
		router.Post("/register", webGuard.Permission(auth.PermCreateUser, deps.Web.Register))
	}
}
