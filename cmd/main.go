package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialnet/internal/auth"
	"socialnet/internal/blog"
	"socialnet/internal/config"
	"socialnet/internal/http_server/handlers/comment"
	"socialnet/internal/http_server/handlers/like"
	"socialnet/internal/http_server/handlers/login"
	"socialnet/internal/http_server/handlers/me"
	"socialnet/internal/http_server/handlers/post"
	"socialnet/internal/http_server/handlers/register"
	resendEmail "socialnet/internal/http_server/handlers/resend_verification_email"
	"socialnet/internal/http_server/handlers/verify"
	"socialnet/internal/lib/bruteforce"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/lib/verification"
	"socialnet/internal/middleware/authn"
	"socialnet/internal/middleware/ratelimit"
	"socialnet/internal/storage/postgres"
	redisstore "socialnet/internal/storage/redis"
	"socialnet/internal/user"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting socialnet service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	// an unreachable redis is not fatal: the brute-force guard and the
	// rate limiter fail open without it
	counters, err := redisstore.New(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, brute-force guard and rate limiter run degraded", sl.Err(err))
	}
	defer counters.Close()

	verificationService := verification.New(log, storage, cfg.Verification.TokenTTL)
	guard := bruteforce.New(log, counters, cfg.BruteForce.MaxAttempts, cfg.BruteForce.AttemptWindow, cfg.BruteForce.LockoutDuration)

	authService := auth.New(
		log,
		storage,
		storage,
		verificationService,
		guard,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Secret,
		cfg.JWT.Algorithm,
	)
	userService := user.New(log, storage, storage)
	blogService := blog.New(log, storage, storage)

	limiter := ratelimit.New(log, counters, cfg.RateLimit)

	router := setupRouter(log, cfg, authService, userService, blogService, limiter, storage)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	userService *user.Service,
	blogService *blog.Service,
	limiter *ratelimit.Limiter,
	storage *postgres.PostgresRepo,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", register.New(log, validate, authService))
		r.Post("/login", login.New(log, validate, authService))
		r.Post("/verify-email/{token}", verify.New(log, authService))
		r.Post("/resend-verification", resendEmail.New(log, validate, authService))
	})

	requireAuth := authn.New(log, storage, cfg.JWT.Secret)

	r.Route("/api/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", me.NewGet(log, userService))
		r.Put("/me", me.NewUpdate(log, validate, userService))
	})

	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/posts", post.NewList(log, blogService))
		r.Get("/posts/{postID}", post.NewGet(log, blogService))
		r.Get("/posts/{postID}/comments", comment.NewList(log, blogService))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/posts", post.NewCreate(log, validate, blogService))
			r.Put("/posts/{postID}", post.NewUpdate(log, validate, blogService))
			r.Delete("/posts/{postID}", post.NewDelete(log, blogService))

			r.Post("/posts/{postID}/comments", comment.NewCreate(log, validate, blogService))
			r.Delete("/posts/{postID}/comments", comment.NewDeleteAll(log, blogService))
			r.Delete("/posts/{postID}/comments/{commentID}", comment.NewDelete(log, blogService))

			r.Post("/posts/{postID}/like", like.NewToggle(log, blogService))
			r.Get("/posts/{postID}/like", like.NewCheck(log, blogService))
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
