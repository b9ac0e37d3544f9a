package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/postboard-be/internal/api/handlers"
	"github.com/isdelr/postboard-be/internal/auth"
	"github.com/isdelr/postboard-be/internal/services"
	"github.com/isdelr/postboard-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	postService services.PostServiceProvider,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	wsHandler := handlers.NewWebSocketHandler(hub, originChecker(allowedOrigins))

	requireAuth := auth.Middleware(tokens, userService)

	r.Get("/ws", wsHandler.Serve)

	r.Route("/users", func(r chi.Router) {
		r.Get("/test", userHandler.Test)
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.With(requireAuth).Get("/current", userHandler.Current)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/test", postHandler.Test)
		r.Get("/", postHandler.GetAll)
		r.Get("/{id}", postHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.Create)
			r.Delete("/{id}", postHandler.Delete)
			r.Post("/like/{id}", postHandler.Like)
			r.Post("/unlike/{id}", postHandler.Unlike)
			r.Post("/comment/{id}", postHandler.AddComment)
			r.Delete("/comment/{id}/{comment_id}", postHandler.DeleteComment)
		})
	})

	return r
}

// originChecker allows websocket upgrades from the configured CORS origins.
// A "*" entry, or no Origin header, is always allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
