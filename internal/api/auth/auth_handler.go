package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMetrics "github.com/FACorreiaa/go-movie-catalog/app/observability/metrics"
	"github.com/FACorreiaa/go-movie-catalog/internal/api"
	"github.com/FACorreiaa/go-movie-catalog/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
	metrics     *appMetrics.AppMetrics // optional; nil disables instrument recording
}

func NewAuthHandler(authService AuthService, m *appMetrics.AppMetrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		metrics:     m,
	}
}

// SignUp registers a new user from {email, password}.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "SignUp", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/signup"),
	))
	defer span.End()
	start := time.Now()

	l := h.logger.With(slog.String("handler", "SignUp"))

	var req types.SignUpRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if msg, ok := validateCredentialsShape(req.Email, req.Password); !ok {
		l.WarnContext(ctx, "Signup validation failed", slog.String("reason", msg))
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	resp, err := h.authService.SignUp(ctx, req.Email, req.Password)
	h.recordSignup(ctx, start)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusConflict, "User already exists")
			return
		}
		l.ErrorContext(ctx, "Signup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Error creating user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Login authenticates {email, password} and returns an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/login"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if msg, ok := validateCredentialsShape(req.Email, req.Password); !ok {
		l.WarnContext(ctx, "Login validation failed", slog.String("reason", msg))
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	resp, err := h.authService.SignIn(ctx, req.Email, req.Password)
	if h.metrics != nil {
		h.metrics.LoginRequestsTotal.Add(ctx, 1)
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *AuthHandler) recordSignup(ctx context.Context, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.SignupRequestsTotal.Add(ctx, 1)
	h.metrics.SignupDurationSeconds.Record(ctx, time.Since(start).Seconds())
}

// validateCredentialsShape enforces the adapter-level shape checks: both
// fields present and the email looking at least like an address.
func validateCredentialsShape(email, password string) (string, bool) {
	switch {
	case strings.TrimSpace(email) == "":
		return "Email is required", false
	case !strings.Contains(email, "@"):
		return "Email is invalid", false
	case password == "":
		return "Password is required", false
	}
	return "", true
}
