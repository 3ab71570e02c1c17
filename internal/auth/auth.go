package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialnet/internal/lib/bruteforce"
	"socialnet/internal/lib/jwt"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password, deliberately: distinct messages would let a caller
	// enumerate registered accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUserExists    = errors.New("user already exists")
)

type UserSaver interface {
	SaveUser(ctx context.Context, email, username, fullName string, passHash []byte) (uuid.UUID, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
}

// VerificationService issues and redeems the opaque email-confirmation
// tokens handed out at registration.
type VerificationService interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Reissue(ctx context.Context, userID uuid.UUID) (string, error)
	Redeem(ctx context.Context, token string) error
}

// AttemptGuard tracks failed logins per "{ip}:{email}" identifier.
type AttemptGuard interface {
	CheckAllowed(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) bool
	RecordSuccess(ctx context.Context, identifier string)
}

type Auth struct {
	log          *slog.Logger
	usrSaver     UserSaver
	usrProvider  UserProvider
	verification VerificationService
	guard        AttemptGuard
	tokenTTL     time.Duration
	tokenSecret  []byte
	tokenAlg     string
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	verification VerificationService,
	guard AttemptGuard,
	tokenTTL time.Duration,
	tokenSecret string,
	tokenAlg string,
) *Auth {
	return &Auth{
		log:          log,
		usrSaver:     userSaver,
		usrProvider:  userProvider,
		verification: verification,
		guard:        guard,
		tokenTTL:     tokenTTL,
		tokenSecret:  []byte(tokenSecret),
		tokenAlg:     tokenAlg,
	}
}

type RegisterResult struct {
	UserID            uuid.UUID
	VerificationToken string
}

// Register creates a credential record and hands back the verification token
// directly in the result. No email is sent: that is an explicit
// simplification of this design, the client is expected to carry the token
// to the verify endpoint itself.
//
// The uniqueness pre-checks are best-effort early rejection; two concurrent
// registrations racing past them are settled by the database's unique
// indexes, which surface here as storage.ErrUserExists.
func (a *Auth) Register(ctx context.Context, email, username, fullName, password string) (RegisterResult, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	if _, err := a.usrProvider.UserByUsername(ctx, username); err == nil {
		return RegisterResult{}, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check username", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := a.usrProvider.UserByEmail(ctx, email); err == nil {
		return RegisterResult{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check email", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	userID, err := a.usrSaver.SaveUser(ctx, email, username, fullName, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return RegisterResult{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.verification.Issue(ctx, userID)
	if err != nil {
		log.Error("failed to issue verification token", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("uid", userID.String()))

	return RegisterResult{
		UserID:            userID,
		VerificationToken: token,
	}, nil
}

// Login checks credentials and returns a session token with the user's email
// as subject. Failed attempts are counted per clientIP:email; once the guard
// reports a lockout the attempt fails before credentials are even read.
func (a *Auth) Login(ctx context.Context, email, password, clientIP string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	identifier := clientIP + ":" + email

	if err := a.guard.CheckAllowed(ctx, identifier); err != nil {
		var locked *bruteforce.LockedError
		if errors.As(err, &locked) {
			log.Warn("login attempt while locked out")
			return "", err
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			a.guard.RecordFailure(ctx, identifier)
			log.Info("login with unknown email")
			return "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		if locked := a.guard.RecordFailure(ctx, identifier); locked {
			log.Warn("identifier locked out", slog.String("uid", user.ID.String()))
		}

		log.Info("invalid credentials")
		return "", ErrInvalidCredentials
	}

	a.guard.RecordSuccess(ctx, identifier)

	accessToken, err := jwt.NewToken(user.Email, a.tokenTTL, a.tokenSecret, a.tokenAlg)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", user.ID.String()))

	return accessToken, nil
}

// ResendVerification rotates the verification token for an unverified
// account. storage.ErrUserNotFound and verification.ErrAlreadyVerified pass
// through for the handler to map.
func (a *Auth) ResendVerification(ctx context.Context, email string) (string, error) {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", err
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.verification.Reissue(ctx, user.ID)
	if err != nil {
		return "", err
	}

	log.Info("verification token reissued", slog.String("uid", user.ID.String()))

	return token, nil
}

// VerifyEmail redeems a verification token. The three failure kinds
// (unknown token, already verified, expired) pass through distinctly so the
// handler can map them to different statuses.
func (a *Auth) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	if err := a.verification.Redeem(ctx, token); err != nil {
		return err
	}

	a.log.Info("email verified", slog.String("op", op))

	return nil
}
