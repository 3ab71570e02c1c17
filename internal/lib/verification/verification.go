package verification

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "socialnet/internal/lib/logger"
	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrTokenNotFound   = errors.New("verification token not found")
	ErrAlreadyVerified = errors.New("email already verified")
	ErrTokenExpired    = errors.New("verification token expired")
)

const tokenBytes = 32

type TokenStorage interface {
	UpsertVerification(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	VerificationByToken(ctx context.Context, token string) (models.EmailVerification, error)
	VerificationByUser(ctx context.Context, userID uuid.UUID) (models.EmailVerification, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	ExpiredUnverified(ctx context.Context) ([]models.EmailVerification, error)
}

type Service struct {
	log      *slog.Logger
	storage  TokenStorage
	tokenTTL time.Duration
}

func New(log *slog.Logger, storage TokenStorage, tokenTTL time.Duration) *Service {
	return &Service{
		log:      log,
		storage:  storage,
		tokenTTL: tokenTTL,
	}
}

// Issue creates a fresh opaque token for the user, valid for the configured
// TTL. A user holds at most one verification record: reissuing before
// redemption rotates token and expiry in place and resets the verified flag.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "verification.Issue"

	log := s.log.With(slog.String("op", op))

	token, err := generateToken()
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().Add(s.tokenTTL)

	if err := s.storage.UpsertVerification(ctx, userID, token, expiresAt); err != nil {
		log.Error("failed to store verification", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Reissue rotates the token for a user who lost the original one. Refuses
// accounts that are already verified.
func (s *Service) Reissue(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "verification.Reissue"

	v, err := s.storage.VerificationByUser(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrVerificationNotFound) {
		s.log.Error("failed to load verification", slog.String("op", op), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err == nil && v.IsVerified {
		return "", ErrAlreadyVerified
	}

	return s.Issue(ctx, userID)
}

// Redeem flips a pending record to verified. It is the only state change a
// token can go through besides reissuance.
func (s *Service) Redeem(ctx context.Context, token string) error {
	const op = "verification.Redeem"

	log := s.log.With(slog.String("op", op))

	v, err := s.storage.VerificationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return ErrTokenNotFound
		}

		log.Error("failed to look up verification", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if v.IsVerified {
		return ErrAlreadyVerified
	}

	if v.IsExpired() {
		return ErrTokenExpired
	}

	if err := s.storage.MarkVerified(ctx, v.ID); err != nil {
		log.Error("failed to mark verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("user_id", v.UserID.String()))

	return nil
}

// ExpiredUnverified lists records eligible for purging by the scheduled
// cleanup job.
func (s *Service) ExpiredUnverified(ctx context.Context) ([]models.EmailVerification, error) {
	const op = "verification.ExpiredUnverified"

	out, err := s.storage.ExpiredUnverified(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
