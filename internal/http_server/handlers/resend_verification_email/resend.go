package resendEmail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/lib/verification"
	"socialnet/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
}

type VerificationResender interface {
	ResendVerification(ctx context.Context, email string) (string, error)
}

// New rotates a user's verification token when the original was lost or
// expired before redemption. The previous token stops working immediately.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	resender VerificationResender,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resendVerificationEmail.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		token, err := resender.ResendVerification(ctx, req.Email)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))
			case errors.Is(err, verification.ErrAlreadyVerified):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already verified"))
			default:
				log.Error("failed to reissue verification token", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("verification token reissued")

		render.JSON(w, r, Response{
			Response:          resp.OK(),
			Message:           "Verification token reissued. Please verify your email.",
			VerificationToken: token,
		})
	}
}
