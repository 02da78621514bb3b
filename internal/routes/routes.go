package routes

import (
	"net/http"
	"strings"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/handlers"
	"github.com/fortifund/fortifund-api/internal/middleware"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	HubEntries  *handlers.HubEntryHandler
	Categories  *handlers.HubCategoryHandler
	Admin       *handlers.AdminHandler
	CurrentUser auth.CurrentUserResolver
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, rateLimit middleware.RateLimitConfig) {
	limited := router.With(middleware.RateLimitByIP(rateLimit))

	// Public routes - no authentication required
	router.Post("/signup", h.Auth.Signup)
	limited.Post("/login", h.Auth.Login)
	limited.Post("/admin-login", h.Auth.AdminLogin)
	limited.Post("/refresh", h.Auth.Refresh)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.CurrentUser))

		r.Post("/logout", h.Auth.Logout)
		r.Get("/users/me", h.Users.GetMe)
		r.Put("/users/me", h.Users.UpdateMe)

		r.Route("/user-hub", func(r chi.Router) {
			r.Post("/", h.HubEntries.Submit)
			r.Get("/", h.HubEntries.ListPublic)
			r.Get("/category/{category}", h.HubEntries.ListPublicByCategory)
			r.Get("/{id}", h.HubEntries.GetPublic)
		})
		r.Get("/hub", h.Categories.List)
		r.Get("/hub/", h.Categories.List)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/{id}", h.Users.GetUser)
			r.Put("/users/{id}", h.Users.UpdateUser)
			r.Delete("/users/{id}", h.Users.DeleteUser)

			r.Get("/admin/dashboard/stats", h.Admin.GetDashboardStats)

			r.Route("/admin/user-hub", func(r chi.Router) {
				r.Post("/", h.HubEntries.AdminCreate)
				r.Get("/", h.HubEntries.AdminList)
				r.Get("/category/{category}", h.HubEntries.AdminListByCategory)
				r.Get("/{id}", h.HubEntries.AdminGet)
				r.Put("/{id}", h.HubEntries.AdminUpdate)
				r.Delete("/{id}", h.HubEntries.AdminDelete)
				r.Patch("/{id}/toggle-status", h.HubEntries.ToggleStatus)
			})

			r.Route("/admin/hub", func(r chi.Router) {
				r.Post("/", h.Categories.Create)
				r.Post("/with-image", h.Categories.CreateWithImage)
				r.Get("/", h.Categories.List)
				r.Get("/{id}", h.Categories.Get)
				r.Put("/{id}", h.Categories.Update)
				r.Put("/{id}/with-image", h.Categories.UpdateWithImage)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})
	})
}

// RegisterUploads serves stored category images from dir under prefix
func RegisterUploads(router chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(dir)))

	router.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		// No directory listings
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
