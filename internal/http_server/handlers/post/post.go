package post

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"socialnet/internal/blog"
	resp "socialnet/internal/lib/api/response"
	sl "socialnet/internal/lib/logger"
	"socialnet/internal/middleware/authn"
	"socialnet/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type View struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Response struct {
	resp.Response
	Post View `json:"post"`
}

type ListResponse struct {
	resp.Response
	Posts []View `json:"posts"`
}

type CreateRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Content   string     `json:"content" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UpdateRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

type Blog interface {
	CreatePost(ctx context.Context, author models.User, title, content string, expiresAt *time.Time) (models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	UpdatePost(ctx context.Context, actor models.User, id uuid.UUID, title, content string) (models.Post, error)
	DeletePost(ctx context.Context, actor models.User, id uuid.UUID) error
}

func NewCreate(log *slog.Logger, validate *validator.Validate, posts Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.post.NewCreate"

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

		var req CreateRequest

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

		created, err := posts.CreatePost(r.Context(), u, req.Title, req.Content, req.ExpiresAt)
		if err != nil {
			if errors.Is(err, blog.ErrNotVerified) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Email verification required"))

				return
			}

			log.Error("failed to create post", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("post created", slog.String("id", created.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Post:     toView(created),
		})
	}
}

func NewGet(log *slog.Logger, posts Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.post.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := postID(w, r)
		if !ok {
			return
		}

		p, err := posts.GetPost(r.Context(), id)
		if err != nil {
			renderPostError(log, w, r, err)
			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Post:     toView(p),
		})
	}
}

func NewList(log *slog.Logger, posts Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.post.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)

		list, err := posts.ListPosts(r.Context(), limit, offset)
		if err != nil {
			log.Error("failed to list posts", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		views := make([]View, 0, len(list))
		for _, p := range list {
			views = append(views, toView(p))
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Posts:    views,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, posts Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.post.NewUpdate"

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

		id, ok := postID(w, r)
		if !ok {
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

		updated, err := posts.UpdatePost(r.Context(), u, id, req.Title, req.Content)
		if err != nil {
			renderPostError(log, w, r, err)
			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Post:     toView(updated),
		})
	}
}

func NewDelete(log *slog.Logger, posts Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.post.NewDelete"

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

		id, ok := postID(w, r)
		if !ok {
			return
		}

		if err := posts.DeletePost(r.Context(), u, id); err != nil {
			renderPostError(log, w, r, err)
			return
		}

		log.Info("post deleted", slog.String("id", id.String()))

		render.JSON(w, r, resp.OK())
	}
}

// postID parses the {postID} route parameter and writes a 404 itself when
// the value is not a UUID.
func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Post not found"))

		return uuid.Nil, false
	}

	return id, true
}

func renderPostError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Post not found"))
	case errors.Is(err, blog.ErrPostGone):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, resp.Error("Post has expired"))
	case errors.Is(err, blog.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Not enough permissions"))
	default:
		log.Error("post operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}

	return v
}

func toView(p models.Post) View {
	return View{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		Title:     p.Title,
		Content:   p.Content,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
