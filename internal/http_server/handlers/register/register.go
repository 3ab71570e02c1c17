package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"socialnet/internal/auth"
	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=6,max=100"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Pass     string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
	UserID            string `json:"user_id"`
}

type UserRegistrar interface {
	Register(ctx context.Context, email, username, fullName, password string) (auth.RegisterResult, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar UserRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		result, err := registrar.Register(ctx, req.Email, req.Username, req.FullName, req.Pass)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUsernameTaken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Username already exists"))
			case errors.Is(err, auth.ErrEmailTaken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already exists"))
			case errors.Is(err, auth.ErrUserExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("User already exists"))
			default:
				log.Error("failed to register user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("User registered", slog.String("id", result.UserID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:          resp.OK(),
			Message:           "User registered successfully. Please verify your email.",
			VerificationToken: result.VerificationToken,
			UserID:            result.UserID.String(),
		})
	}
}
