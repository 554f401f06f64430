package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

var _ AuthRepo = (*AuthRepoImpl)(nil)

// AuthRepo is the credential store boundary: it translates user lookups and
// inserts into queries against the users table and decides locally whether a
// failure means "row absent" (api.ErrNotFound), "duplicate" (api.ErrConflict)
// or a genuine store failure.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error)
}

type AuthRepoImpl struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewAuthRepo(db api.DBTX, logger *slog.Logger) *AuthRepoImpl {
	return &AuthRepoImpl{
		logger: logger,
		db:     db,
	}
}

// GetUserByEmail retrieves a user by exact email match.
func (r *AuthRepoImpl) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
         FROM users
         WHERE email = $1`,
		email).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", email, api.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: query failed: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a new user row. The users.email unique constraint is the
// authoritative guard against duplicate signups; a violation here means a
// concurrent signup won the race and is reported as api.ErrConflict.
func (r *AuthRepoImpl) CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error) {
	start := time.Now()
	var user types.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash)
         VALUES ($1, $2)
         RETURNING id, email, password_hash, created_at, updated_at`,
		email, passwordHash).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("user %q: %w", email, api.ErrConflict)
		}
		return nil, fmt.Errorf("create user: db insert failed: %w", err)
	}

	r.logger.InfoContext(ctx, "User created",
		slog.String("userID", user.ID.String()),
		slog.Duration("duration", time.Since(start)),
	)
	return &user, nil
}
