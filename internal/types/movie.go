package types

import (
	"time"

	"github.com/google/uuid"
)

// Movie represents a catalog entry.
type Movie struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title" example:"The Matrix"`
	Description *string    `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"` // Calendar date; time component is always midnight UTC.
	Genre       *string    `json:"genre,omitempty" example:"sci-fi"`
	Rating      *float64   `json:"rating,omitempty" example:"4.5"` // 0 to 5.
	PosterURL   *string    `json:"poster_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateMovieRequest represents the expected JSON body for creating a movie.
type CreateMovieRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"` // ISO calendar date, e.g. "1999-03-31".
	Genre       *string  `json:"genre,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	PosterURL   *string  `json:"poster_url,omitempty"`
}

// UpdateMovieRequest represents a partial update; nil fields are left untouched.
type UpdateMovieRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Genre       *string  `json:"genre,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	PosterURL   *string  `json:"poster_url,omitempty"`
}

// MovieFilter represents search filters; supplied fields combine with AND,
// omitted fields are not applied.
type MovieFilter struct {
	Title       string `json:"title,omitempty"`
	Genre       string `json:"genre,omitempty"`
	ReleaseYear string `json:"release_year,omitempty"` // 4-digit year matched against the release date's year.
	Description string `json:"description,omitempty"`
}

// IsEmpty reports whether no filter field was supplied.
func (f MovieFilter) IsEmpty() bool {
	return f.Title == "" && f.Genre == "" && f.ReleaseYear == "" && f.Description == ""
}

// FavoriteResponse confirms a favorite state transition.
type FavoriteResponse struct {
	Message string    `json:"message"`
	MovieID uuid.UUID `json:"movie_id"`
}
