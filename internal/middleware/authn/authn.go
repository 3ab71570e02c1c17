package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "socialnet/internal/lib/api/response"
	libjwt "socialnet/internal/lib/jwt"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/go-chi/render"
)

type contextKey struct{}

var userKey contextKey

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// New builds the bearer-token middleware for protected routes. A missing,
// malformed, badly signed or expired token is one uniform 401; a valid token
// whose subject no longer resolves to a user is a distinct 404.
func New(log *slog.Logger, users UserProvider, secret string) func(http.Handler) http.Handler {
	secretBytes := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn"

			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r)
				return
			}

			email, err := libjwt.ParseToken(token, secretBytes)
			if err != nil {
				log.Info("rejected session token", slog.String("op", op), sl.Err(err))
				unauthorized(w, r)
				return
			}

			user, err := users.UserByEmail(r.Context(), email)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					render.Status(r, http.StatusNotFound)
					render.JSON(w, r, resp.Error("User not found"))
					return
				}

				log.Error("failed to resolve token subject", slog.String("op", op), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("Invalid authentication credentials"))
}

// UserFromContext returns the authenticated user placed by the middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
