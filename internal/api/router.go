package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tgrieger/inkwell/internal/api/handlers"
	"github.com/tgrieger/inkwell/internal/api/middleware"
	"github.com/tgrieger/inkwell/internal/service"
)

func NewRouter(services *service.Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	userHandler := handlers.NewUserHandler(services.User)
	postHandler := handlers.NewPostHandler(services.Post)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Public post reads
		r.Get("/posts", postHandler.List)
		r.Get("/posts/{id}", postHandler.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Put("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
				r.Get("/posts", postHandler.ListMine)
			})

			r.Post("/posts", postHandler.Create)
			r.Put("/posts/{id}", postHandler.Update)
			r.Delete("/posts/{id}", postHandler.Delete)
		})
	})

	return r
}
