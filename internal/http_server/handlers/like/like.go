package like

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"socialnet/internal/blog"
	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/middleware/authn"
	"socialnet/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type Response struct {
	resp.Response
	Liked bool `json:"liked"`
}

type Blog interface {
	ToggleLike(ctx context.Context, actor models.User, postID uuid.UUID) (bool, error)
	CheckLike(ctx context.Context, actor models.User, postID uuid.UUID) (bool, error)
}

// NewToggle flips the caller's like on a post and reports the new state.
func NewToggle(log *slog.Logger, likes Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.NewToggle"

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

		postID, ok := routeUUID(w, r)
		if !ok {
			return
		}

		liked, err := likes.ToggleLike(r.Context(), u, postID)
		if err != nil {
			renderError(log, w, r, err)
			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Liked:    liked,
		})
	}
}

func NewCheck(log *slog.Logger, likes Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.NewCheck"

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

		postID, ok := routeUUID(w, r)
		if !ok {
			return
		}

		liked, err := likes.CheckLike(r.Context(), u, postID)
		if err != nil {
			renderError(log, w, r, err)
			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Liked:    liked,
		})
	}
}

func routeUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Post not found"))

		return uuid.Nil, false
	}

	return id, true
}

func renderError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Post not found"))
	case errors.Is(err, blog.ErrPostGone):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, resp.Error("Post has expired"))
	default:
		log.Error("like operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}
