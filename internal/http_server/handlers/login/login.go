package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"socialnet/internal/auth"
	resp "socialnet/internal/lib/api/response"
	"socialnet/internal/lib/bruteforce"
	"socialnet/internal/lib/clientip"
	sl "socialnet/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserAuthenticator interface {
	Login(ctx context.Context, email, password, clientIP string) (string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator UserAuthenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		accessToken, err := authenticator.Login(r.Context(), req.Email, req.Pass, clientip.FromRequest(r))
		if err != nil {
			var locked *bruteforce.LockedError
			switch {
			case errors.As(err, &locked):
				retryMinutes := int(locked.RetryAfter.Minutes())

				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, resp.Error(fmt.Sprintf(
					"Too many failed login attempts. Please try again in %d minutes.", retryMinutes,
				)))
			case errors.Is(err, auth.ErrInvalidCredentials):
				// one message for unknown email and wrong password alike
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid credentials"))
			default:
				log.Error("failed to login user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("User logged in successfully")

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: accessToken,
			TokenType:   "bearer",
		})
	}
}
