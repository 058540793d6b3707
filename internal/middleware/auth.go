package middleware

import (
	"context"
	"net/http"
	"strings"

	"creatorflow/internal/auth"
	"creatorflow/internal/model"
	"creatorflow/internal/repository"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// UserFromContext extracts the authenticated user placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*model.User)
	return u, ok
}

// AuthMiddleware validates the Bearer access token and loads the user. A
// syntactically valid token whose user no longer exists is rejected; the
// account may have been deleted since the token was minted.
func AuthMiddleware(jwtSecret string, userRepo repository.UserRepository, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAccessToken(parts[1], jwtSecret)
			if err != nil {
				logger.Debug().Err(err).Msg("Rejected access token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			user, err := userRepo.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				logger.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to load user for auth")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
