package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

const pgUniqueViolation = "23505"

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the catalog store boundary over the movies and
// user_favorite_movies tables. Row-absent and store-failure outcomes are
// decided here: absence maps to api.ErrNotFound, duplicate favorites to
// api.ErrConflict, anything else surfaces as a wrapped store error.
type Repository interface {
	GetAllMovies(ctx context.Context) ([]types.Movie, error)
	SearchMovies(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error)
	GetMovieByID(ctx context.Context, movieID uuid.UUID) (*types.Movie, error)
	CreateMovie(ctx context.Context, movie *types.Movie) (*types.Movie, error)
	UpdateMovie(ctx context.Context, movieID uuid.UUID, params UpdateMovieParams) (*types.Movie, error)
	DeleteMovie(ctx context.Context, movieID uuid.UUID) error

	AddFavourite(ctx context.Context, userID, movieID uuid.UUID) error
	RemoveFavourite(ctx context.Context, userID, movieID uuid.UUID) error
	IsFavourite(ctx context.Context, userID, movieID uuid.UUID) (bool, error)
	GetFavourites(ctx context.Context, userID uuid.UUID) ([]types.Movie, error)
}

// UpdateMovieParams carries the normalized partial update; nil fields are
// left untouched.
type UpdateMovieParams struct {
	Title       *string
	Description *string
	ReleaseDate *string // canonical ISO date, already normalized by the service
	Genre       *string
	Rating      *float64
	PosterURL   *string
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewRepository(db api.DBTX, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

const movieColumns = `id, title, description, release_date, genre, rating, poster_url, created_at, updated_at`

func scanMovie(row pgx.Row, m *types.Movie) error {
	return row.Scan(&m.ID, &m.Title, &m.Description, &m.ReleaseDate, &m.Genre, &m.Rating, &m.PosterURL, &m.CreatedAt, &m.UpdatedAt)
}

func collectMovies(rows pgx.Rows) ([]types.Movie, error) {
	defer rows.Close()
	var movies []types.Movie
	for rows.Next() {
		var m types.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie rows: %w", err)
	}
	return movies, nil
}

func (r *RepositoryImpl) GetAllMovies(ctx context.Context) ([]types.Movie, error) {
	rows, err := r.db.Query(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	return collectMovies(rows)
}

// SearchMovies builds a conjunctive filter: text fields match as
// case-insensitive substrings, release_year matches the release date's year.
// Omitted fields add no condition.
func (r *RepositoryImpl) SearchMovies(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	baseQuery := `SELECT ` + movieColumns + ` FROM movies`

	args := []any{}
	conditions := []string{}
	argCounter := 1

	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Title+"%")
		argCounter++
	}
	if filter.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("genre ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Genre+"%")
		argCounter++
	}
	if filter.Description != "" {
		conditions = append(conditions, fmt.Sprintf("description ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Description+"%")
		argCounter++
	}
	if filter.ReleaseYear != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(release_date, 'YYYY') = $%d", argCounter))
		args = append(args, filter.ReleaseYear)
		argCounter++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at"

	rows, err := r.db.Query(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	return collectMovies(rows)
}

func (r *RepositoryImpl) GetMovieByID(ctx context.Context, movieID uuid.UUID) (*types.Movie, error) {
	var m types.Movie
	err := scanMovie(r.db.QueryRow(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = $1`, movieID), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("movie %s: %w", movieID, api.ErrNotFound)
		}
		return nil, fmt.Errorf("get movie by id: query failed: %w", err)
	}
	return &m, nil
}

func (r *RepositoryImpl) CreateMovie(ctx context.Context, movie *types.Movie) (*types.Movie, error) {
	var created types.Movie
	err := scanMovie(r.db.QueryRow(ctx,
		`INSERT INTO movies (title, description, release_date, genre, rating, poster_url)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING `+movieColumns,
		movie.Title, movie.Description, movie.ReleaseDate, movie.Genre, movie.Rating, movie.PosterURL), &created)
	if err != nil {
		return nil, fmt.Errorf("create movie: db insert failed: %w", err)
	}

	r.logger.InfoContext(ctx, "Movie created", slog.String("movieID", created.ID.String()), slog.String("title", created.Title))
	return &created, nil
}

// UpdateMovie applies a partial update by id. Zero rows affected means the id
// does not exist and maps to api.ErrNotFound; store errors stay distinct.
func (r *RepositoryImpl) UpdateMovie(ctx context.Context, movieID uuid.UUID, params UpdateMovieParams) (*types.Movie, error) {
	setClauses := []string{}
	args := []any{}
	argCounter := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argCounter))
		args = append(args, value)
		argCounter++
	}

	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.ReleaseDate != nil {
		appendSet("release_date", *params.ReleaseDate)
	}
	if params.Genre != nil {
		appendSet("genre", *params.Genre)
	}
	if params.Rating != nil {
		appendSet("rating", *params.Rating)
	}
	if params.PosterURL != nil {
		appendSet("poster_url", *params.PosterURL)
	}

	if len(setClauses) == 0 {
		// Nothing to change; still report NotFound for unknown ids.
		return r.GetMovieByID(ctx, movieID)
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE movies SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argCounter, movieColumns)
	args = append(args, movieID)

	var updated types.Movie
	err := scanMovie(r.db.QueryRow(ctx, query, args...), &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("movie %s: %w", movieID, api.ErrNotFound)
		}
		return nil, fmt.Errorf("update movie: db update failed: %w", err)
	}

	r.logger.InfoContext(ctx, "Movie updated", slog.String("movieID", movieID.String()))
	return &updated, nil
}

func (r *RepositoryImpl) DeleteMovie(ctx context.Context, movieID uuid.UUID) error {
	// Favorite rows referencing the movie are removed by the FK cascade.
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, movieID)
	if err != nil {
		return fmt.Errorf("delete movie: db delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movie %s: %w", movieID, api.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Movie deleted", slog.String("movieID", movieID.String()))
	return nil
}

// AddFavourite inserts the (user, movie) pair. The unique pair constraint is
// the authoritative guard; a violation means the pair already exists and maps
// to api.ErrConflict.
func (r *RepositoryImpl) AddFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_favorite_movies (user_id, movie_id) VALUES ($1, $2)`,
		userID, movieID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("favorite (%s, %s): %w", userID, movieID, api.ErrConflict)
		}
		return fmt.Errorf("add favourite: db insert failed: %w", err)
	}

	r.logger.InfoContext(ctx, "Favourite movie added", slog.String("userID", userID.String()), slog.String("movieID", movieID.String()))
	return nil
}

func (r *RepositoryImpl) RemoveFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM user_favorite_movies WHERE user_id = $1 AND movie_id = $2`,
		userID, movieID)
	if err != nil {
		return fmt.Errorf("remove favourite: db delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("favorite (%s, %s): %w", userID, movieID, api.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Favourite movie removed", slog.String("userID", userID.String()), slog.String("movieID", movieID.String()))
	return nil
}

func (r *RepositoryImpl) IsFavourite(ctx context.Context, userID, movieID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_favorite_movies WHERE user_id = $1 AND movie_id = $2)`,
		userID, movieID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is favourite: query failed: %w", err)
	}
	return exists, nil
}

// GetFavourites returns the movies joined through the user's favorite rows.
// Order is unspecified.
func (r *RepositoryImpl) GetFavourites(ctx context.Context, userID uuid.UUID) ([]types.Movie, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.title, m.description, m.release_date, m.genre, m.rating, m.poster_url, m.created_at, m.updated_at
         FROM movies m
         INNER JOIN user_favorite_movies uf ON m.id = uf.movie_id
         WHERE uf.user_id = $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favourite movies: %w", err)
	}
	return collectMovies(rows)
}
