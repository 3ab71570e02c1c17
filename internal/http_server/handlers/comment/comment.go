package comment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
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
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Response struct {
	resp.Response
	Comment View `json:"comment"`
}

type ListResponse struct {
	resp.Response
	Comments []View `json:"comments"`
}

type DeleteAllResponse struct {
	resp.Response
	Deleted int64 `json:"deleted"`
}

type CreateRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type Blog interface {
	CreateComment(ctx context.Context, author models.User, postID uuid.UUID, content string) (models.Comment, error)
	Comments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	DeleteComment(ctx context.Context, actor models.User, postID, commentID uuid.UUID) error
	DeleteAllComments(ctx context.Context, actor models.User, postID uuid.UUID) (int64, error)
}

func NewCreate(log *slog.Logger, validate *validator.Validate, comments Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewCreate"

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

		postID, ok := routeUUID(w, r, "postID", "Post not found")
		if !ok {
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

		created, err := comments.CreateComment(r.Context(), u, postID, req.Content)
		if err != nil {
			renderBlogError(log, w, r, err)
			return
		}

		log.Info("comment created", slog.String("id", created.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Comment:  toView(created),
		})
	}
}

func NewList(log *slog.Logger, comments Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		postID, ok := routeUUID(w, r, "postID", "Post not found")
		if !ok {
			return
		}

		list, err := comments.Comments(r.Context(), postID)
		if err != nil {
			renderBlogError(log, w, r, err)
			return
		}

		views := make([]View, 0, len(list))
		for _, c := range list {
			views = append(views, toView(c))
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Comments: views,
		})
	}
}

func NewDelete(log *slog.Logger, comments Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewDelete"

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

		postID, ok := routeUUID(w, r, "postID", "Post not found")
		if !ok {
			return
		}

		commentID, ok := routeUUID(w, r, "commentID", "Comment not found")
		if !ok {
			return
		}

		if err := comments.DeleteComment(r.Context(), u, postID, commentID); err != nil {
			renderBlogError(log, w, r, err)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

// NewDeleteAll wipes a post's full comment thread in one request.
func NewDeleteAll(log *slog.Logger, comments Blog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewDeleteAll"

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

		postID, ok := routeUUID(w, r, "postID", "Post not found")
		if !ok {
			return
		}

		deleted, err := comments.DeleteAllComments(r.Context(), u, postID)
		if err != nil {
			renderBlogError(log, w, r, err)
			return
		}

		log.Info("comments deleted", slog.Int64("count", deleted))

		render.JSON(w, r, DeleteAllResponse{
			Response: resp.OK(),
			Deleted:  deleted,
		})
	}
}

func routeUUID(w http.ResponseWriter, r *http.Request, param, notFoundMsg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(notFoundMsg))

		return uuid.Nil, false
	}

	return id, true
}

func renderBlogError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Post not found"))
	case errors.Is(err, blog.ErrPostGone):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, resp.Error("Post has expired"))
	case errors.Is(err, blog.ErrCommentNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Comment not found"))
	case errors.Is(err, blog.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Not enough permissions"))
	default:
		log.Error("comment operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}

func toView(c models.Comment) View {
	return View{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		UserID:    c.UserID.String(),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
