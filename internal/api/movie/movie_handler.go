package movie

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	maxGenreLen       = 50
)

// MovieHandler holds dependencies for catalog and favorite HTTP handlers.
type MovieHandler struct {
	movieService Service
	logger       *slog.Logger
}

func NewMovieHandler(movieService Service, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
		logger:       logger,
	}
}

// GetMovies handles GET /movies.
func (h *MovieHandler) GetMovies(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "GetMovies", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies"),
	))
	defer span.End()

	movies, err := h.movieService.GetAllMovies(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list movies")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}

	span.SetStatus(codes.Ok, "Movies listed")
	api.WriteJSONResponse(w, r, http.StatusOK, movies)
}

// SearchMovies handles GET /movies/search. Filters arrive as query
// parameters and combine conjunctively; absent parameters are not applied.
func (h *MovieHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "SearchMovies", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/search"),
	))
	defer span.End()

	q := r.URL.Query()
	filter := types.MovieFilter{
		Title:       strings.TrimSpace(q.Get("title")),
		Genre:       strings.TrimSpace(q.Get("genre")),
		ReleaseYear: strings.TrimSpace(q.Get("release_year")),
		Description: strings.TrimSpace(q.Get("description")),
	}

	if filter.ReleaseYear != "" && !isYear(filter.ReleaseYear) {
		span.SetStatus(codes.Error, "invalid release_year")
		api.ErrorResponse(w, r, http.StatusBadRequest, "release_year must be a four digit year")
		return
	}

	movies, err := h.movieService.SearchMovies(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to search movies", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search movies")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to search movies")
		return
	}

	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	span.SetStatus(codes.Ok, "Movies searched")
	api.WriteJSONResponse(w, r, http.StatusOK, movies)
}

// CreateMovie handles POST /movies.
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "CreateMovie", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateMovie"))

	var req types.CreateMovieRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if msg := validateMovieFields(req.Title, req.Description, req.Genre, req.Rating, req.ReleaseDate, true); msg != "" {
		l.WarnContext(ctx, "Movie validation failed", slog.String("reason", msg))
		span.SetStatus(codes.Error, "validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	movie, err := h.movieService.CreateMovie(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create movie", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create movie")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create movie")
		return
	}

	span.SetAttributes(attribute.String("movie.id", movie.ID.String()))
	span.SetStatus(codes.Ok, "Movie created")
	api.WriteJSONResponse(w, r, http.StatusCreated, movie)
}

// UpdateMovie handles PUT /movies/{id}. Only the fields present in the body
// change; omitted fields keep their stored values.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "UpdateMovie", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateMovie"))

	movieID, ok := h.parseMovieID(w, r, span)
	if !ok {
		return
	}

	var req types.UpdateMovieRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	if msg := validateMovieFields(title, req.Description, req.Genre, req.Rating, req.ReleaseDate, req.Title != nil); msg != "" {
		l.WarnContext(ctx, "Movie validation failed", slog.String("reason", msg))
		span.SetStatus(codes.Error, "validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	movie, err := h.movieService.UpdateMovie(ctx, movieID, req)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			span.SetStatus(codes.Error, "movie not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Movie not found")
		default:
			l.ErrorContext(ctx, "Failed to update movie", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update movie")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}

	span.SetStatus(codes.Ok, "Movie updated")
	api.WriteJSONResponse(w, r, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /movies/{id}.
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "DeleteMovie", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "DeleteMovie"))

	movieID, ok := h.parseMovieID(w, r, span)
	if !ok {
		return
	}

	if err := h.movieService.DeleteMovie(ctx, movieID); err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			span.SetStatus(codes.Error, "movie not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Movie not found")
		default:
			l.ErrorContext(ctx, "Failed to delete movie", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to delete movie")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete movie")
		}
		return
	}

	span.SetStatus(codes.Ok, "Movie deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{
		Success: true,
		Message: "Movie deleted",
	})
}

// AddFavourite handles POST /movies/{id}/favorite.
func (h *MovieHandler) AddFavourite(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "AddFavourite", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/{id}/favorite"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "AddFavourite"))

	userID, ok := h.callerID(w, r, span)
	if !ok {
		return
	}
	movieID, ok := h.parseMovieID(w, r, span)
	if !ok {
		return
	}

	if err := h.movieService.AddFavourite(ctx, userID, movieID); err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			span.SetStatus(codes.Error, "movie not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Movie not found")
		case errors.Is(err, api.ErrConflict):
			span.SetStatus(codes.Error, "already a favorite")
			api.ErrorResponse(w, r, http.StatusConflict, "Movie is already a favorite")
		default:
			l.ErrorContext(ctx, "Failed to add favourite", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to add favourite")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to add favorite")
		}
		return
	}

	span.SetStatus(codes.Ok, "Favourite added")
	api.WriteJSONResponse(w, r, http.StatusCreated, types.FavoriteResponse{
		Message: "Movie added to favorites",
		MovieID: movieID,
	})
}

// RemoveFavourite handles DELETE /movies/{id}/favorite.
func (h *MovieHandler) RemoveFavourite(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "RemoveFavourite", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/{id}/favorite"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "RemoveFavourite"))

	userID, ok := h.callerID(w, r, span)
	if !ok {
		return
	}
	movieID, ok := h.parseMovieID(w, r, span)
	if !ok {
		return
	}

	if err := h.movieService.RemoveFavourite(ctx, userID, movieID); err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			span.SetStatus(codes.Error, "favorite not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Favorite not found")
		default:
			l.ErrorContext(ctx, "Failed to remove favourite", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to remove favourite")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to remove favorite")
		}
		return
	}

	span.SetStatus(codes.Ok, "Favourite removed")
	api.WriteJSONResponse(w, r, http.StatusOK, types.FavoriteResponse{
		Message: "Movie removed from favorites",
		MovieID: movieID,
	})
}

// GetFavourites handles GET /movies/favorites.
func (h *MovieHandler) GetFavourites(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MovieHandler").Start(r.Context(), "GetFavourites", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRoute("/movies/favorites"),
	))
	defer span.End()

	userID, ok := h.callerID(w, r, span)
	if !ok {
		return
	}

	movies, err := h.movieService.GetFavourites(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list favourites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list favourites")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch favorites")
		return
	}

	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	span.SetStatus(codes.Ok, "Favourites listed")
	api.WriteJSONResponse(w, r, http.StatusOK, movies)
}

// callerID resolves the authenticated user from the request context.
func (h *MovieHandler) callerID(w http.ResponseWriter, r *http.Request, span trace.Span) (uuid.UUID, bool) {
	raw, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "User ID missing from authenticated context")
		span.SetStatus(codes.Error, "missing identity")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Invalid user ID in token", slog.String("userID", raw))
		span.SetStatus(codes.Error, "invalid identity")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *MovieHandler) parseMovieID(w http.ResponseWriter, r *http.Request, span trace.Span) (uuid.UUID, bool) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid movie id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid movie ID")
		return uuid.Nil, false
	}
	span.SetAttributes(attribute.String("movie.id", movieID.String()))
	return movieID, true
}

// validateMovieFields enforces the catalog field bounds. Lengths are counted
// in characters, matching the VARCHAR column widths. titleRequired is false
// for partial updates that leave the title untouched.
func validateMovieFields(title string, description, genre *string, rating *float64, releaseDate *string, titleRequired bool) string {
	if titleRequired {
		if title == "" {
			return "title is required"
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return "title must be at most 100 characters"
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		return "description must be at most 500 characters"
	}
	if genre != nil && utf8.RuneCountInString(*genre) > maxGenreLen {
		return "genre must be at most 50 characters"
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return "rating must be between 0 and 5"
	}
	if releaseDate != nil {
		if _, err := normalizeReleaseDate(*releaseDate); err != nil {
			return "release_date must be an ISO calendar date"
		}
	}
	return ""
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
