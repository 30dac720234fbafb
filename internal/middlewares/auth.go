package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/services"
)

// actorFieldType keys the authenticated actor in the request context.
type actorFieldType string

const actorField actorFieldType = "actorField"

// AuthMiddlewareConfig configures the bearer-token authentication middleware.
type AuthMiddlewareConfig struct {
	excludePaths []string
}

func AuthMiddleware() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{}
}

// WithExcludedPaths marks path prefixes that skip authentication.
func (a *AuthMiddlewareConfig) WithExcludedPaths(paths ...string) *AuthMiddlewareConfig {
	a.excludePaths = paths
	return a
}

// Middleware validates the bearer token and puts the actor it was issued for
// into the request context.
func (a *AuthMiddlewareConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range a.excludePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		jwtService := GetServiceFromContext[models.JWTService](w, r, JwtServiceKey)

		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			http.Error(w, "Bearer token is empty", http.StatusUnauthorized)
			return
		}

		actor, err := (*jwtService).ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenIsInvalid) {
				http.Error(w, "Token is invalid", http.StatusUnauthorized)
				return
			}

			if errors.Is(err, services.ErrTokenIsExpired) {
				http.Error(w, "Token is expired", http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during validating token: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorField, actor)))
	})
}

// GetActorFromContext returns the authenticated actor. On a missing actor it
// responds with HTTP 500 and returns nil.
func GetActorFromContext(w http.ResponseWriter, r *http.Request) *models.Actor {
	actor, ok := r.Context().Value(actorField).(*models.Actor)

	if !ok {
		http.Error(w, "Could not retrieve actor from context", http.StatusInternalServerError)
		return nil
	}

	return actor
}

// RequireRoles gates a route to actors holding at least one of the given
// role tiers.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := r.Context().Value(actorField).(*models.Actor)
			if !ok {
				http.Error(w, "Could not retrieve actor from context", http.StatusInternalServerError)
				return
			}

			if !actor.HasAnyRole(roles...) {
				http.Error(w, fmt.Sprintf("You need the %s role to use this command", strings.ToLower(strings.Join(roles, " or "))), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
