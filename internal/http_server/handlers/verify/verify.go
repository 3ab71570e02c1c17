package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/lib/verification"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

func New(
	log *slog.Logger,
	verifier EmailVerifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			log.Warn("missing verification token")

			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("Invalid verification token"))

			return
		}

		if err := verifier.VerifyEmail(r.Context(), token); err != nil {
			switch {
			case errors.Is(err, verification.ErrTokenNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Invalid verification token"))
			case errors.Is(err, verification.ErrAlreadyVerified):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already verified"))
			case errors.Is(err, verification.ErrTokenExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Verification token has expired"))
			default:
				log.Error("failed to verify email", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("email verified successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Email verified successfully",
		})
	}
}
