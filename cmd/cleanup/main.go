package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"socialnet/internal/config"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/storage/postgres"

	"github.com/joho/godotenv"
)

// One-shot purge of accounts that never confirmed their email before the
// verification token expired. Meant to run on a schedule (cron or a k8s
// CronJob), not as a daemon.
func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad("./config/config.yaml")

	log := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	log.Info("starting cleanup of unverified accounts")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	expired, err := storage.ExpiredUnverified(ctx)
	if err != nil {
		log.Error("failed to list expired verifications", sl.Err(err))
		os.Exit(1)
	}

	var purged int
	for _, v := range expired {
		if err := storage.SoftDeleteVerification(ctx, v.ID); err != nil {
			log.Error("failed to delete verification",
				slog.String("user_id", v.UserID.String()), sl.Err(err))
			continue
		}

		if err := storage.SoftDeleteUser(ctx, v.UserID); err != nil {
			log.Error("failed to delete user",
				slog.String("user_id", v.UserID.String()), sl.Err(err))
			continue
		}

		purged++
	}

	log.Info("cleanup finished",
		slog.Int("expired", len(expired)),
		slog.Int("purged", purged),
	)
}
