package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/middleware/authn"
	"socialnet/internal/models"
	"socialnet/internal/user"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type Response struct {
	resp.Response
	User UserView `json:"user"`
}

type ProfileProvider interface {
	Profile(ctx context.Context, u models.User) (user.Profile, error)
}

type ProfileUpdater interface {
	ProfileProvider
	Update(ctx context.Context, u models.User, params user.UpdateParams) (models.User, error)
}

// NewGet returns the authenticated user's profile with the computed
// is_verified flag.
func NewGet(log *slog.Logger, profiles ProfileProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		u, ok := authn.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Invalid authentication credentials"))

			return
		}

		profile, err := profiles.Profile(r.Context(), u)
		if err != nil {
			log.Error("failed to load profile", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     toView(profile),
		})
	}
}

type UpdateRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=6,max=100"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
}

// NewUpdate changes the authenticated user's profile fields.
func NewUpdate(log *slog.Logger, validate *validator.Validate, users ProfileUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		u, ok := authn.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Invalid authentication credentials"))

			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		updated, err := users.Update(r.Context(), u, user.UpdateParams{
			Email:    req.Email,
			Username: req.Username,
			FullName: req.FullName,
		})
		if err != nil {
			switch {
			case errors.Is(err, user.ErrUsernameTaken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Username already exists"))
			case errors.Is(err, user.ErrEmailTaken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already exists"))
			default:
				log.Error("failed to update user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		profile, err := users.Profile(r.Context(), updated)
		if err != nil {
			log.Error("failed to load profile", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     toView(profile),
		})
	}
}

func toView(p user.Profile) UserView {
	return UserView{
		ID:         p.ID.String(),
		Email:      p.Email,
		Username:   p.Username,
		FullName:   p.FullName,
		IsVerified: p.IsVerified,
		CreatedAt:  p.CreatedAt,
	}
}
