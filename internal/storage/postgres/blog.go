package postgres

import (
	"context"
	"errors"
	"fmt"

	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SavePost(ctx context.Context, post *models.Post) (uuid.UUID, error) {
	const op = "storage.postgres.SavePost"

	query := `
		INSERT INTO post (id, user_id, title, content, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id uuid.UUID

	err := r.pool.QueryRow(ctx, query, uuid.New(), post.UserID, post.Title, post.Content, post.ExpiresAt).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) PostByID(ctx context.Context, id uuid.UUID) (models.Post, error) {
	query := `
		SELECT id, user_id, title, content, expires_at, is_deleted, created_at, updated_at
		FROM post
		WHERE id = $1 AND NOT is_deleted;
	`

	var p models.Post

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Content,
		&p.ExpiresAt,
		&p.IsDeleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, storage.ErrPostNotFound
		}

		return models.Post{}, err
	}

	return p, nil
}

func (r *PostgresRepo) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	const op = "storage.postgres.ListPosts"

	query := `
		SELECT id, user_id, title, content, expires_at, is_deleted, created_at, updated_at
		FROM post
		WHERE NOT is_deleted AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Post

	for rows.Next() {
		var p models.Post
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Title,
			&p.Content,
			&p.ExpiresAt,
			&p.IsDeleted,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return out, nil
}

func (r *PostgresRepo) UpdatePost(ctx context.Context, id uuid.UUID, title, content string) error {
	const op = "storage.postgres.UpdatePost"

	query := `
		UPDATE post
		SET title = $1, content = $2, updated_at = NOW()
		WHERE id = $3 AND NOT is_deleted;
	`

	tag, err := r.pool.Exec(ctx, query, title, content, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

func (r *PostgresRepo) SoftDeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SoftDeletePost"

	query := `UPDATE post SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) SaveComment(ctx context.Context, comment *models.Comment) (uuid.UUID, error) {
	const op = "storage.postgres.SaveComment"

	query := `
		INSERT INTO comment (id, post_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	var id uuid.UUID

	err := r.pool.QueryRow(ctx, query, uuid.New(), comment.PostID, comment.UserID, comment.Content).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) CommentByID(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, is_deleted, created_at, updated_at
		FROM comment
		WHERE id = $1 AND NOT is_deleted;
	`

	var c models.Comment

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.PostID,
		&c.UserID,
		&c.Content,
		&c.IsDeleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, storage.ErrCommentNotFound
		}

		return models.Comment{}, err
	}

	return c, nil
}

func (r *PostgresRepo) CommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	const op = "storage.postgres.CommentsByPost"

	query := `
		SELECT id, post_id, user_id, content, is_deleted, created_at, updated_at
		FROM comment
		WHERE post_id = $1 AND NOT is_deleted
		ORDER BY created_at;
	`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Comment

	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID,
			&c.PostID,
			&c.UserID,
			&c.Content,
			&c.IsDeleted,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return out, nil
}

func (r *PostgresRepo) SoftDeleteComment(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SoftDeleteComment"

	query := `UPDATE comment SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) SoftDeleteCommentsByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	const op = "storage.postgres.SoftDeleteCommentsByPost"

	query := `UPDATE comment SET is_deleted = TRUE, updated_at = NOW() WHERE post_id = $1 AND NOT is_deleted`

	tag, err := r.pool.Exec(ctx, query, postID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) HasLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	const op = "storage.postgres.HasLike"

	query := `SELECT EXISTS (SELECT 1 FROM post_like WHERE user_id = $1 AND post_id = $2)`

	var exists bool

	if err := r.pool.QueryRow(ctx, query, userID, postID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *PostgresRepo) AddLike(ctx context.Context, userID, postID uuid.UUID) error {
	const op = "storage.postgres.AddLike"

	// ON CONFLICT keeps the toggle idempotent under concurrent requests.
	query := `
		INSERT INTO post_like (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING;
	`

	if _, err := r.pool.Exec(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) RemoveLike(ctx context.Context, userID, postID uuid.UUID) error {
	const op = "storage.postgres.RemoveLike"

	query := `DELETE FROM post_like WHERE user_id = $1 AND post_id = $2`

	if _, err := r.pool.Exec(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
