package blog

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
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostGone        = errors.New("post has expired")
	ErrForbidden       = errors.New("operation not allowed")
	ErrNotVerified     = errors.New("email not verified")
)

type Storage interface {
	SavePost(ctx context.Context, post *models.Post) (uuid.UUID, error)
	PostByID(ctx context.Context, id uuid.UUID) (models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, title, content string) error
	SoftDeletePost(ctx context.Context, id uuid.UUID) error

	SaveComment(ctx context.Context, comment *models.Comment) (uuid.UUID, error)
	CommentByID(ctx context.Context, id uuid.UUID) (models.Comment, error)
	CommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	SoftDeleteComment(ctx context.Context, id uuid.UUID) error
	SoftDeleteCommentsByPost(ctx context.Context, postID uuid.UUID) (int64, error)

	HasLike(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	AddLike(ctx context.Context, userID, postID uuid.UUID) error
	RemoveLike(ctx context.Context, userID, postID uuid.UUID) error
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

// CreatePost refuses authors whose email is not verified yet.
func (s *Service) CreatePost(ctx context.Context, author models.User, title, content string, expiresAt *time.Time) (models.Post, error) {
	const op = "blog.CreatePost"

	log := s.log.With(slog.String("op", op))

	v, err := s.verification.VerificationByUser(ctx, author.ID)
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return models.Post{}, ErrNotVerified
		}

		log.Error("failed to load verification", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	if !v.IsVerified {
		return models.Post{}, ErrNotVerified
	}

	post := &models.Post{
		UserID:    author.ID,
		Title:     title,
		Content:   content,
		ExpiresAt: expiresAt,
	}

	id, err := s.storage.SavePost(ctx, post)
	if err != nil {
		log.Error("failed to save post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.storage.PostByID(ctx, id)
}

func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	const op = "blog.GetPost"

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return models.Post{}, ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	if post.IsExpired() {
		return models.Post{}, ErrPostGone
	}

	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	const op = "blog.ListPosts"

	posts, err := s.storage.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (s *Service) UpdatePost(ctx context.Context, actor models.User, id uuid.UUID, title, content string) (models.Post, error) {
	const op = "blog.UpdatePost"

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	if post.UserID != actor.ID {
		return models.Post{}, ErrForbidden
	}

	if err := s.storage.UpdatePost(ctx, id, title, content); err != nil {
		s.log.Error("failed to update post", slog.String("op", op), sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.storage.PostByID(ctx, id)
}

func (s *Service) DeletePost(ctx context.Context, actor models.User, id uuid.UUID) error {
	const op = "blog.DeletePost"

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return ErrPostNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if post.UserID != actor.ID {
		return ErrForbidden
	}

	if err := s.storage.SoftDeletePost(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) CreateComment(ctx context.Context, author models.User, postID uuid.UUID, content string) (models.Comment, error) {
	const op = "blog.CreateComment"

	if _, err := s.GetPost(ctx, postID); err != nil {
		return models.Comment{}, err
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  author.ID,
		Content: content,
	}

	id, err := s.storage.SaveComment(ctx, comment)
	if err != nil {
		s.log.Error("failed to save comment", slog.String("op", op), sl.Err(err))
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.storage.CommentByID(ctx, id)
}

func (s *Service) Comments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	const op = "blog.Comments"

	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.storage.CommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

// DeleteComment is allowed for the comment author and for the post owner.
func (s *Service) DeleteComment(ctx context.Context, actor models.User, postID, commentID uuid.UUID) error {
	const op = "blog.DeleteComment"

	post, err := s.storage.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return ErrPostNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	comment, err := s.storage.CommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return ErrCommentNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if comment.PostID != post.ID {
		return ErrCommentNotFound
	}

	if comment.UserID != actor.ID && post.UserID != actor.ID {
		return ErrForbidden
	}

	if err := s.storage.SoftDeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteAllComments wipes a post's comment thread; post owner only.
func (s *Service) DeleteAllComments(ctx context.Context, actor models.User, postID uuid.UUID) (int64, error) {
	const op = "blog.DeleteAllComments"

	post, err := s.storage.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return 0, ErrPostNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if post.UserID != actor.ID {
		return 0, ErrForbidden
	}

	deleted, err := s.storage.SoftDeleteCommentsByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return deleted, nil
}

// ToggleLike flips the actor's like on a post and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, actor models.User, postID uuid.UUID) (bool, error) {
	const op = "blog.ToggleLike"

	if _, err := s.GetPost(ctx, postID); err != nil {
		return false, err
	}

	liked, err := s.storage.HasLike(ctx, actor.ID, postID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if liked {
		if err := s.storage.RemoveLike(ctx, actor.ID, postID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	if err := s.storage.AddLike(ctx, actor.ID, postID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (s *Service) CheckLike(ctx context.Context, actor models.User, postID uuid.UUID) (bool, error) {
	const op = "blog.CheckLike"

	liked, err := s.storage.HasLike(ctx, actor.ID, postID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return liked, nil
}
