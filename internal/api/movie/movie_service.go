package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

const movieListCacheKey = "movies:all"

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for catalog and favorite
// operations.
type Service interface {
	GetAllMovies(ctx context.Context) ([]types.Movie, error)
	SearchMovies(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error)
	CreateMovie(ctx context.Context, req types.CreateMovieRequest) (*types.Movie, error)
	UpdateMovie(ctx context.Context, movieID uuid.UUID, req types.UpdateMovieRequest) (*types.Movie, error)
	DeleteMovie(ctx context.Context, movieID uuid.UUID) error

	AddFavourite(ctx context.Context, userID, movieID uuid.UUID) error
	RemoveFavourite(ctx context.Context, userID, movieID uuid.UUID) error
	GetFavourites(ctx context.Context, userID uuid.UUID) ([]types.Movie, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	listCache *cache.Cache
}

// NewService creates the catalog service. listTTL bounds how stale the
// full-catalog listing may get before the next read hits the store again.
func NewService(repo Repository, listTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if listTTL <= 0 {
		listTTL = 5 * time.Minute
	}
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		listCache: cache.New(listTTL, 2*listTTL),
	}
}

func (s *ServiceImpl) GetAllMovies(ctx context.Context) ([]types.Movie, error) {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "GetAllMovies")
	defer span.End()

	if cached, found := s.listCache.Get(movieListCacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]types.Movie), nil
	}

	movies, err := s.repo.GetAllMovies(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch movies", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch movies")
		return nil, fmt.Errorf("error fetching movies: %w", err)
	}

	s.listCache.SetDefault(movieListCacheKey, movies)
	span.SetStatus(codes.Ok, "Movies fetched")
	return movies, nil
}

func (s *ServiceImpl) SearchMovies(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "SearchMovies", trace.WithAttributes(
		attribute.String("filter.title", filter.Title),
		attribute.String("filter.genre", filter.Genre),
		attribute.String("filter.release_year", filter.ReleaseYear),
	))
	defer span.End()

	if filter.IsEmpty() {
		return s.GetAllMovies(ctx)
	}

	movies, err := s.repo.SearchMovies(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to search movies", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search movies")
		return nil, fmt.Errorf("error searching movies: %w", err)
	}

	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	span.SetStatus(codes.Ok, "Movies searched")
	return movies, nil
}

func (s *ServiceImpl) CreateMovie(ctx context.Context, req types.CreateMovieRequest) (*types.Movie, error) {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "CreateMovie", trace.WithAttributes(
		attribute.String("movie.title", req.Title),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateMovie"), slog.String("title", req.Title))

	movie := &types.Movie{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Rating:      req.Rating,
		PosterURL:   req.PosterURL,
	}

	if req.ReleaseDate != nil {
		normalized, err := normalizeReleaseDate(*req.ReleaseDate)
		if err != nil {
			l.WarnContext(ctx, "Invalid release date", slog.String("release_date", *req.ReleaseDate))
			span.SetStatus(codes.Error, "invalid release date")
			return nil, err
		}
		movie.ReleaseDate = &normalized
	}

	created, err := s.repo.CreateMovie(ctx, movie)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create movie", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create movie")
		return nil, fmt.Errorf("error creating movie: %w", err)
	}

	s.listCache.Delete(movieListCacheKey)
	span.SetStatus(codes.Ok, "Movie created")
	return created, nil
}

func (s *ServiceImpl) UpdateMovie(ctx context.Context, movieID uuid.UUID, req types.UpdateMovieRequest) (*types.Movie, error) {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "UpdateMovie", trace.WithAttributes(
		attribute.String("movie.id", movieID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateMovie"), slog.String("movieID", movieID.String()))

	params := UpdateMovieParams{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Rating:      req.Rating,
		PosterURL:   req.PosterURL,
	}

	if req.ReleaseDate != nil {
		normalized, err := normalizeReleaseDate(*req.ReleaseDate)
		if err != nil {
			l.WarnContext(ctx, "Invalid release date", slog.String("release_date", *req.ReleaseDate))
			span.SetStatus(codes.Error, "invalid release date")
			return nil, err
		}
		iso := normalized.Format("2006-01-02")
		params.ReleaseDate = &iso
	}

	updated, err := s.repo.UpdateMovie(ctx, movieID, params)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Movie not found for update")
			span.SetStatus(codes.Error, "movie not found")
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update movie", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update movie")
		return nil, fmt.Errorf("error updating movie: %w", err)
	}

	s.listCache.Delete(movieListCacheKey)
	span.SetStatus(codes.Ok, "Movie updated")
	return updated, nil
}

func (s *ServiceImpl) DeleteMovie(ctx context.Context, movieID uuid.UUID) error {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "DeleteMovie", trace.WithAttributes(
		attribute.String("movie.id", movieID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteMovie"), slog.String("movieID", movieID.String()))

	if err := s.repo.DeleteMovie(ctx, movieID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Movie not found for deletion")
			span.SetStatus(codes.Error, "movie not found")
			return err
		}
		l.ErrorContext(ctx, "Failed to delete movie", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete movie")
		return fmt.Errorf("error deleting movie: %w", err)
	}

	s.listCache.Delete(movieListCacheKey)
	span.SetStatus(codes.Ok, "Movie deleted")
	return nil
}

// AddFavourite transitions the (user, movie) pair from absent to present.
// A repeat transition is a Conflict, never a silent success.
func (s *ServiceImpl) AddFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "AddFavourite", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("movie.id", movieID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "AddFavourite"),
		slog.String("userID", userID.String()), slog.String("movieID", movieID.String()))

	if _, err := s.repo.GetMovieByID(ctx, movieID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Movie not found for favourite")
			span.SetStatus(codes.Error, "movie not found")
			return err
		}
		l.ErrorContext(ctx, "Failed to check movie", slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("error adding favourite: %w", err)
	}

	// Fast path for a friendlier error; the unique pair constraint still
	// guards the concurrent case.
	exists, err := s.repo.IsFavourite(ctx, userID, movieID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check favourite", slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("error adding favourite: %w", err)
	}
	if exists {
		l.WarnContext(ctx, "Movie is already a favourite")
		span.SetStatus(codes.Error, "already a favorite")
		return fmt.Errorf("already a favorite: %w", api.ErrConflict)
	}

	if err := s.repo.AddFavourite(ctx, userID, movieID); err != nil {
		if errors.Is(err, api.ErrConflict) {
			// Lost the check-then-insert race to a concurrent add.
			span.SetStatus(codes.Error, "already a favorite")
			return fmt.Errorf("already a favorite: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to add favourite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add favourite")
		return fmt.Errorf("error adding favourite: %w", err)
	}

	span.SetStatus(codes.Ok, "Favourite added")
	return nil
}

// RemoveFavourite transitions the pair from present to absent; removing an
// absent favorite is NotFound.
func (s *ServiceImpl) RemoveFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "RemoveFavourite", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("movie.id", movieID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "RemoveFavourite"),
		slog.String("userID", userID.String()), slog.String("movieID", movieID.String()))

	exists, err := s.repo.IsFavourite(ctx, userID, movieID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check favourite", slog.Any("error", err))
		span.RecordError(err)
		return fmt.Errorf("error removing favourite: %w", err)
	}
	if !exists {
		l.WarnContext(ctx, "Favourite not found")
		span.SetStatus(codes.Error, "favorite not found")
		return fmt.Errorf("favorite not found: %w", api.ErrNotFound)
	}

	if err := s.repo.RemoveFavourite(ctx, userID, movieID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "favorite not found")
			return fmt.Errorf("favorite not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to remove favourite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to remove favourite")
		return fmt.Errorf("error removing favourite: %w", err)
	}

	span.SetStatus(codes.Ok, "Favourite removed")
	return nil
}

func (s *ServiceImpl) GetFavourites(ctx context.Context, userID uuid.UUID) ([]types.Movie, error) {
	ctx, span := otel.Tracer("MovieService").Start(ctx, "GetFavourites", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	movies, err := s.repo.GetFavourites(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get favourite movies", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get favourite movies")
		return nil, fmt.Errorf("error fetching favourites: %w", err)
	}

	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	span.SetStatus(codes.Ok, "Favourites fetched")
	return movies, nil
}

// normalizeReleaseDate accepts an ISO calendar date or an RFC3339 instant and
// canonicalizes it to a date at midnight UTC.
func normalizeReleaseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("invalid release date %q, expected an ISO calendar date", raw)
}
