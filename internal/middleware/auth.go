package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/cache"
	"github.com/envbox/envbox/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier auth.Verifier
	Cache    *cache.Cache
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header, resolves it to
// a user through the configured verifier (consulting the Redis cache first),
// and injects the verified identity into the request context.
//
// Every failure path produces the same 401 response so callers cannot tell
// whether the credential was missing, malformed, expired, or unknown.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "missing_credential")
				recorder.IncAuthAttempt("failure")
				writeAuthError(w)
				return
			}

			// Check cache first. The cache key is a hash of the token,
			// never the token itself.
			cacheKey := auth.QuickHash(token)
			if cfg.Cache != nil {
				if authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey); authCtx != nil {
					recorder.IncAuthAttempt("success")
					ctx := auth.ContextWithAuth(r.Context(), authCtx)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			authCtx, err := cfg.Verifier.Verify(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInvalidToken):
					logAuthFailure(cfg.Logger, r, "invalid_token")
				case errors.Is(err, auth.ErrUnknownUser):
					logAuthFailure(cfg.Logger, r, "unknown_user")
				default:
					cfg.Logger.Error("verifier error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				recorder.IncAuthAttempt("failure")
				writeAuthError(w)
				return
			}

			recorder.IncAuthAttempt("success")

			if cfg.Cache != nil {
				_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the bearer token from the Authorization header.
// A missing or non-bearer header yields auth.ErrMissingCredential.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", auth.ErrMissingCredential
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", auth.ErrMissingCredential
	}
	return token, nil
}

// logAuthFailure logs a failed authentication attempt with its real reason.
// The reason is for operators only; the response body never reflects it.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing credentials","code":"UNAUTHORIZED"}`))
}
