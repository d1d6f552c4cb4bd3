package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/felixge/httpsnoop"
	gorillaHandlers "github.com/gorilla/handlers"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/identity"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (identity.Claims, error)
}

// PrincipalResolver loads the current role and ban state for a token subject.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (application.Principal, error)
}

// RequireIdentity authenticates requests with a bearer token and attaches the
// resolved principal to the request context.
func RequireIdentity(verifier TokenVerifier, resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, err := identity.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				reason := errMissingToken
				if !errors.Is(err, identity.ErrMissingToken) {
					reason = errInvalidToken
				}
				responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_REQUIRED", Message: reason.Error()})
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				responder.loggerFor(ctx).WarnContext(ctx, "token rejected", "error", err)
				responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID", Message: errInvalidToken.Error()})
				return
			}

			principal, err := resolver.ResolvePrincipal(ctx, claims.Subject)
			if err != nil {
				responder.handleServiceError(ctx, w, err)
				return
			}

			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", principal.UserID))
			}
			ctx = ContextWithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger and records the outcome of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			metrics := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			level := slog.LevelInfo
			if metrics.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "request completed",
				"status", metrics.Code,
				"bytes", metrics.Written,
				"duration", metrics.Duration,
			)
		})
	}
}

// Recover turns handler panics into 500 responses and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{logger: defaultLogger(logger)}),
		gorillaHandlers.PrintRecoveryStack(false),
	)
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(values ...interface{}) {
	l.logger.Error("panic recovered", "panic", fmt.Sprint(values...))
}

// CORS allows browser clients served from origins to call the API.
func CORS(origins []string) func(http.Handler) http.Handler {
	return gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		gorillaHandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
}
