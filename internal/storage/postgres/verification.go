package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertVerification creates the verification record for a user, or rotates
// it in place (new token, new expiry, verified reset) when one already
// exists. The unique index on user_id keeps the record single.
func (r *PostgresRepo) UpsertVerification(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	const op = "storage.postgres.UpsertVerification"

	query := `
		INSERT INTO email_verification (id, user_id, token, expires_at, is_verified)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token,
		    expires_at = EXCLUDED.expires_at,
		    is_verified = FALSE,
		    is_deleted = FALSE,
		    updated_at = NOW();
	`

	if _, err := r.pool.Exec(ctx, query, uuid.New(), userID, token, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) VerificationByToken(ctx context.Context, token string) (models.EmailVerification, error) {
	query := `
		SELECT id, user_id, token, expires_at, is_verified, is_deleted, created_at, updated_at
		FROM email_verification
		WHERE token = $1 AND NOT is_deleted;
	`

	return r.scanVerification(r.pool.QueryRow(ctx, query, token))
}

func (r *PostgresRepo) VerificationByUser(ctx context.Context, userID uuid.UUID) (models.EmailVerification, error) {
	query := `
		SELECT id, user_id, token, expires_at, is_verified, is_deleted, created_at, updated_at
		FROM email_verification
		WHERE user_id = $1 AND NOT is_deleted;
	`

	return r.scanVerification(r.pool.QueryRow(ctx, query, userID))
}

func (r *PostgresRepo) scanVerification(row pgx.Row) (models.EmailVerification, error) {
	var v models.EmailVerification

	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Token,
		&v.ExpiresAt,
		&v.IsVerified,
		&v.IsDeleted,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailVerification{}, storage.ErrVerificationNotFound
		}

		return models.EmailVerification{}, err
	}

	return v, nil
}

func (r *PostgresRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.MarkVerified"

	query := `UPDATE email_verification SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrVerificationNotFound
	}

	return nil
}

// ExpiredUnverified lists records whose token expired without ever being
// redeemed. Consumed by the cleanup binary.
func (r *PostgresRepo) ExpiredUnverified(ctx context.Context) ([]models.EmailVerification, error) {
	const op = "storage.postgres.ExpiredUnverified"

	query := `
		SELECT id, user_id, token, expires_at, is_verified, is_deleted, created_at, updated_at
		FROM email_verification
		WHERE NOT is_verified AND expires_at < NOW() AND NOT is_deleted;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.EmailVerification

	for rows.Next() {
		var v models.EmailVerification
		err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.Token,
			&v.ExpiresAt,
			&v.IsVerified,
			&v.IsDeleted,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return out, nil
}

func (r *PostgresRepo) SoftDeleteVerification(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SoftDeleteVerification"

	query := `UPDATE email_verification SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
