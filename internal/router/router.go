package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-movie-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-movie-catalog/internal/api/movie"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	MovieHandler           *movie.MovieHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Public routes, no token required
	r.Group(func(r chi.Router) {
		r.Post("/auth/signup", cfg.AuthHandler.SignUp)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		r.Get("/movies", cfg.MovieHandler.GetMovies)
		r.Get("/movies/search", cfg.MovieHandler.SearchMovies)
	})

	// Protected routes behind JWT authentication. Static paths like
	// /movies/favorites win over /movies/{id} in chi's routing, so the
	// favorites listing never collides with the id routes.
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Post("/movies", cfg.MovieHandler.CreateMovie)
		r.Put("/movies/{id}", cfg.MovieHandler.UpdateMovie)
		r.Delete("/movies/{id}", cfg.MovieHandler.DeleteMovie)

		r.Get("/movies/favorites", cfg.MovieHandler.GetFavourites)
		r.Post("/movies/{id}/favorite", cfg.MovieHandler.AddFavourite)
		r.Delete("/movies/{id}/favorite", cfg.MovieHandler.RemoveFavourite)
	})

	return r
}
