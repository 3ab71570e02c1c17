package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"socialnet/internal/config"
	resp "socialnet/internal/lib/api/response"
	"socialnet/internal/lib/clientip"
	sl "socialnet/internal/lib/logger"

	"github.com/go-chi/render"
)

const keyPrefix = "rate_limit:"

// documentation and liveness endpoints are never rate limited
var exemptPrefixes = []string{"/health", "/docs"}

type Limit struct {
	Requests int
	Window   time.Duration
}

// Store is the expiring counter surface shared with the brute-force guard.
type Store interface {
	Count(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Limiter struct {
	log          *slog.Logger
	store        Store
	routes       map[string]Limit
	defaultLimit Limit
}

// New builds the per-route fixed-window limiter from the config table.
func New(log *slog.Logger, store Store, cfg config.RateLimit) *Limiter {
	return &Limiter{
		log:   log,
		store: store,
		routes: map[string]Limit{
			"/api/auth/login":    {Requests: cfg.LoginLimit, Window: cfg.LoginWindow},
			"/api/auth/register": {Requests: cfg.RegisterLimit, Window: cfg.RegisterWindow},
		},
		defaultLimit: Limit{Requests: cfg.DefaultLimit, Window: cfg.DefaultWindow},
	}
}

// Middleware counts requests per (client IP, path) and rejects with 429 once
// the window's limit is reached. A missing or unreachable counter store lets
// the request through uncounted (fail-open): the limiter is a protection,
// not a dependency of the request path.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middleware.ratelimit"

		path := r.URL.Path

		for _, prefix := range exemptPrefixes {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		limit, ok := l.routes[path]
		if !ok {
			limit = l.defaultLimit
		}

		key := keyPrefix + clientip.FromRequest(r) + ":" + path

		count, err := l.store.Count(r.Context(), key)
		if err != nil {
			l.log.Warn("counter store unavailable, rate limit skipped", slog.String("op", op), sl.Err(err))
			next.ServeHTTP(w, r)
			return
		}

		if count >= int64(limit.Requests) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, resp.Error(fmt.Sprintf(
				"Rate limit exceeded. Maximum %d requests per %d seconds.",
				limit.Requests, int(limit.Window.Seconds()),
			)))
			return
		}

		if _, err := l.store.Incr(r.Context(), key, limit.Window); err != nil {
			l.log.Warn("counter store unavailable, request not counted", slog.String("op", op), sl.Err(err))
		}

		next.ServeHTTP(w, r)
	})
}
