package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-movie-catalog/config"
	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for signup and login.
type AuthService interface {
	// SignUp registers a new user and returns the created record with the
	// password hash stripped. Returns api.ErrConflict when the email is taken.
	SignUp(ctx context.Context, email, password string) (*types.SignUpResponse, error)

	// SignIn authenticates a user and mints an access token. All credential
	// failures collapse into api.ErrUnauthenticated so callers cannot tell
	// an unknown email from a wrong password.
	SignIn(ctx context.Context, email, password string) (*types.LoginResponse, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (*types.SignUpResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "SignUp", trace.WithAttributes(
		attribute.String("user.email", email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SignUp"), slog.String("email", email))

	// Fast-path existence check for a friendlier Conflict message. The
	// users.email unique constraint remains the authoritative guard; a store
	// failure here must not be read as "email available".
	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.WarnContext(ctx, "Signup rejected, user already exists")
		span.SetStatus(codes.Error, "user already exists")
		return nil, fmt.Errorf("user already exists: %w", api.ErrConflict)
	case !errors.Is(err, api.ErrNotFound):
		l.ErrorContext(ctx, "Failed to check existing user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "existence check failed")
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hashed))
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			// Lost the check-then-insert race to a concurrent signup.
			l.WarnContext(ctx, "Signup rejected by unique constraint")
			span.SetStatus(codes.Error, "user already exists")
			return nil, fmt.Errorf("user already exists: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered successfully", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return &types.SignUpResponse{
		Message: "User registered successfully",
		User:    user.ToResponse(),
	}, nil
}

func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*types.LoginResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "SignIn", trace.WithAttributes(
		attribute.String("user.email", email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SignIn"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		// Unknown email and lookup failure both surface as the same
		// Unauthorized result so the response never leaks which one it was.
		l.WarnContext(ctx, "Login failed, user lookup", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.WarnContext(ctx, "Login failed, password mismatch")
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate access token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "token generation failed")
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	return &types.LoginResponse{AccessToken: token}, nil
}

// generateAccessToken mints a stateless HS256 token bound to the user's id
// and email, with a bounded lifetime taken from config.
func (s *AuthServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID:   user.ID.String(),
		Username: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
