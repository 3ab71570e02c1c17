package user

import (
	"context"
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
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

type Storage interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, email, username, fullName string) error
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

type VerificationProvider interface {
	VerificationByUser(ctx context.Context, userID uuid.UUID) (models.EmailVerification, error)
}

type Service struct {
	log          *slog.Logger
	storage      Storage
	verification VerificationProvider
}

func New(log *slog.Logger, storage Storage, verification VerificationProvider) *Service {
	return &Service{
		log:          log,
		storage:      storage,
		verification: verification,
	}
}

// Profile is the user-facing view of a credential record. IsVerified is
// computed from the verification record at read time, never stored on the
// user row, so the two cannot drift apart.
type Profile struct {
	ID         uuid.UUID
	Email      string
	Username   string
	FullName   string
	IsVerified bool
	CreatedAt  time.Time
}

func (s *Service) Profile(ctx context.Context, u models.User) (Profile, error) {
	const op = "user.Profile"

	verified := false

	v, err := s.verification.VerificationByUser(ctx, u.ID)
	switch {
	case err == nil:
		verified = v.IsVerified
	case errors.Is(err, storage.ErrVerificationNotFound):
		// no record means never verified
	default:
		s.log.Error("failed to load verification", slog.String("op", op), sl.Err(err))
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return Profile{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		IsVerified: verified,
		CreatedAt:  u.CreatedAt,
	}, nil
}

// UpdateParams carries the optional profile changes; nil fields keep the
// current value.
type UpdateParams struct {
	Email    *string
	Username *string
	FullName *string
}

// Update re-checks username/email uniqueness excluding the user itself, then
// persists the change. Like registration, the pre-checks are best effort and
// the database's unique indexes settle concurrent updates.
func (s *Service) Update(ctx context.Context, u models.User, params UpdateParams) (models.User, error) {
	const op = "user.Update"

	log := s.log.With(slog.String("op", op))

	email := u.Email
	username := u.Username
	fullName := u.FullName

	if params.Username != nil && *params.Username != u.Username {
		username = *params.Username

		existing, err := s.storage.UserByUsername(ctx, username)
		if err == nil && existing.ID != u.ID {
			return models.User{}, ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			log.Error("failed to check username", sl.Err(err))
			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if params.Email != nil && *params.Email != u.Email {
		email = *params.Email

		existing, err := s.storage.UserByEmail(ctx, email)
		if err == nil && existing.ID != u.ID {
			return models.User{}, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			log.Error("failed to check email", sl.Err(err))
			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if params.FullName != nil {
		fullName = *params.FullName
	}

	if err := s.storage.UpdateUser(ctx, u.ID, email, username, fullName); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return models.User{}, ErrEmailTaken
		}

		log.Error("failed to update user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.storage.UserByID(ctx, u.ID)
	if err != nil {
		log.Error("failed to reload user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}
