package movie

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAllMovies(ctx context.Context) ([]types.Movie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Movie), args.Error(1)
}

func (m *MockRepository) SearchMovies(ctx context.Context, filter types.MovieFilter) ([]types.Movie, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Movie), args.Error(1)
}

func (m *MockRepository) GetMovieByID(ctx context.Context, movieID uuid.UUID) (*types.Movie, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Movie), args.Error(1)
}

func (m *MockRepository) CreateMovie(ctx context.Context, movie *types.Movie) (*types.Movie, error) {
	args := m.Called(ctx, movie)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Movie), args.Error(1)
}

func (m *MockRepository) UpdateMovie(ctx context.Context, movieID uuid.UUID, params UpdateMovieParams) (*types.Movie, error) {
	args := m.Called(ctx, movieID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Movie), args.Error(1)
}

func (m *MockRepository) DeleteMovie(ctx context.Context, movieID uuid.UUID) error {
	args := m.Called(ctx, movieID)
	return args.Error(0)
}

func (m *MockRepository) AddFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	args := m.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (m *MockRepository) RemoveFavourite(ctx context.Context, userID, movieID uuid.UUID) error {
	args := m.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (m *MockRepository) IsFavourite(ctx context.Context, userID, movieID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetFavourites(ctx context.Context, userID uuid.UUID) ([]types.Movie, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Movie), args.Error(1)
}

func newTestService(repo Repository) *ServiceImpl {
	return NewService(repo, time.Minute, slog.Default())
}

func TestGetAllMovies(t *testing.T) {
	t.Run("CachesListing", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		movies := []types.Movie{{ID: uuid.New(), Title: "Dune"}}
		mockRepo.On("GetAllMovies", ctx).Return(movies, nil).Once()

		first, err := service.GetAllMovies(ctx)
		require.NoError(t, err)
		second, err := service.GetAllMovies(ctx)
		require.NoError(t, err)

		assert.Equal(t, movies, first)
		assert.Equal(t, movies, second)
		mockRepo.AssertNumberOfCalls(t, "GetAllMovies", 1)
	})

	t.Run("CacheInvalidatedOnCreate", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetAllMovies", ctx).Return([]types.Movie{}, nil).Twice()
		mockRepo.On("CreateMovie", ctx, mock.AnythingOfType("*types.Movie")).
			Return(&types.Movie{ID: uuid.New(), Title: "Dune"}, nil).Once()

		_, err := service.GetAllMovies(ctx)
		require.NoError(t, err)

		_, err = service.CreateMovie(ctx, types.CreateMovieRequest{Title: "Dune"})
		require.NoError(t, err)

		_, err = service.GetAllMovies(ctx)
		require.NoError(t, err)
		mockRepo.AssertNumberOfCalls(t, "GetAllMovies", 2)
	})
}

func TestSearchMovies(t *testing.T) {
	t.Run("EmptyFilterFallsBackToListing", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		movies := []types.Movie{{ID: uuid.New(), Title: "The Matrix"}}
		mockRepo.On("GetAllMovies", ctx).Return(movies, nil).Once()

		got, err := service.SearchMovies(ctx, types.MovieFilter{})

		require.NoError(t, err)
		assert.Equal(t, movies, got)
		mockRepo.AssertNotCalled(t, "SearchMovies", mock.Anything, mock.Anything)
	})

	t.Run("DelegatesFilter", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		filter := types.MovieFilter{Title: "matrix", ReleaseYear: "1999"}
		movies := []types.Movie{{ID: uuid.New(), Title: "The Matrix"}}
		mockRepo.On("SearchMovies", ctx, filter).Return(movies, nil).Once()

		got, err := service.SearchMovies(ctx, filter)

		require.NoError(t, err)
		assert.Equal(t, movies, got)
		mockRepo.AssertExpectations(t)
	})
}

func TestCreateMovie(t *testing.T) {
	t.Run("NormalizesReleaseDate", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		date := "1999-03-31"
		want := time.Date(1999, time.March, 31, 0, 0, 0, 0, time.UTC)

		mockRepo.On("CreateMovie", ctx, mock.MatchedBy(func(m *types.Movie) bool {
			return m.ReleaseDate != nil && m.ReleaseDate.Equal(want)
		})).Return(&types.Movie{ID: uuid.New(), Title: "The Matrix", ReleaseDate: &want}, nil).Once()

		movie, err := service.CreateMovie(ctx, types.CreateMovieRequest{Title: "The Matrix", ReleaseDate: &date})

		require.NoError(t, err)
		require.NotNil(t, movie.ReleaseDate)
		assert.True(t, movie.ReleaseDate.Equal(want))
		mockRepo.AssertExpectations(t)
	})

	t.Run("AcceptsRFC3339Timestamp", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		date := "1999-03-31T18:30:00Z"
		want := time.Date(1999, time.March, 31, 0, 0, 0, 0, time.UTC)

		mockRepo.On("CreateMovie", ctx, mock.MatchedBy(func(m *types.Movie) bool {
			return m.ReleaseDate != nil && m.ReleaseDate.Equal(want)
		})).Return(&types.Movie{ID: uuid.New(), Title: "The Matrix", ReleaseDate: &want}, nil).Once()

		_, err := service.CreateMovie(ctx, types.CreateMovieRequest{Title: "The Matrix", ReleaseDate: &date})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RejectsMalformedReleaseDate", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)

		bad := "next tuesday"
		movie, err := service.CreateMovie(context.Background(), types.CreateMovieRequest{Title: "Dune", ReleaseDate: &bad})

		assert.Nil(t, movie)
		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateMovie", mock.Anything, mock.Anything)
	})
}

func TestUpdateMovie(t *testing.T) {
	t.Run("UnknownMovie", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()
		movieID := uuid.New()

		mockRepo.On("UpdateMovie", ctx, movieID, mock.AnythingOfType("UpdateMovieParams")).
			Return(nil, api.ErrNotFound).Once()

		movie, err := service.UpdateMovie(ctx, movieID, types.UpdateMovieRequest{})

		assert.Nil(t, movie)
		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteMovie(t *testing.T) {
	t.Run("UnknownMovie", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()
		movieID := uuid.New()

		mockRepo.On("DeleteMovie", ctx, movieID).Return(api.ErrNotFound).Once()

		err := service.DeleteMovie(ctx, movieID)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestAddFavourite(t *testing.T) {
	userID := uuid.New()
	movieID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetMovieByID", ctx, movieID).Return(&types.Movie{ID: movieID, Title: "Dune"}, nil).Once()
		mockRepo.On("IsFavourite", ctx, userID, movieID).Return(false, nil).Once()
		mockRepo.On("AddFavourite", ctx, userID, movieID).Return(nil).Once()

		err := service.AddFavourite(ctx, userID, movieID)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("AlreadyFavourite", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetMovieByID", ctx, movieID).Return(&types.Movie{ID: movieID, Title: "Dune"}, nil).Once()
		mockRepo.On("IsFavourite", ctx, userID, movieID).Return(true, nil).Once()

		err := service.AddFavourite(ctx, userID, movieID)

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertNotCalled(t, "AddFavourite", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ConcurrentAddLosesRace", func(t *testing.T) {
		// The pair constraint catches what the fast-path check missed.
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetMovieByID", ctx, movieID).Return(&types.Movie{ID: movieID, Title: "Dune"}, nil).Once()
		mockRepo.On("IsFavourite", ctx, userID, movieID).Return(false, nil).Once()
		mockRepo.On("AddFavourite", ctx, userID, movieID).Return(api.ErrConflict).Once()

		err := service.AddFavourite(ctx, userID, movieID)

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownMovie", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetMovieByID", ctx, movieID).Return(nil, api.ErrNotFound).Once()

		err := service.AddFavourite(ctx, userID, movieID)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertNotCalled(t, "AddFavourite", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveFavourite(t *testing.T) {
	userID := uuid.New()
	movieID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("IsFavourite", ctx, userID, movieID).Return(true, nil).Once()
		mockRepo.On("RemoveFavourite", ctx, userID, movieID).Return(nil).Once()

		err := service.RemoveFavourite(ctx, userID, movieID)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotAFavourite", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("IsFavourite", ctx, userID, movieID).Return(false, nil).Once()

		err := service.RemoveFavourite(ctx, userID, movieID)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertNotCalled(t, "RemoveFavourite", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetFavourites(t *testing.T) {
	t.Run("ScopedToUser", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()
		userID := uuid.New()

		movies := []types.Movie{{ID: uuid.New(), Title: "Dune"}}
		mockRepo.On("GetFavourites", ctx, userID).Return(movies, nil).Once()

		got, err := service.GetFavourites(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, movies, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()
		userID := uuid.New()

		mockRepo.On("GetFavourites", ctx, userID).Return(nil, errors.New("connection reset")).Once()

		got, err := service.GetFavourites(ctx, userID)

		assert.Nil(t, got)
		assert.Error(t, err)
		mockRepo.AssertExpectations(t)
	})
}
