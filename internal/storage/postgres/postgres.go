package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialnet/internal/config"
	"socialnet/internal/models"
	"socialnet/internal/storage"
	"socialnet/internal/storage/postgres/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if err := runMigrations(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// runMigrations applies the embedded goose migrations over a separate
// database/sql connection; goose does not speak pgxpool.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (r *PostgresRepo) SaveUser(ctx context.Context, email, username, fullName string, passHash []byte) (uuid.UUID, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, email, username, full_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id uuid.UUID

	err := r.pool.QueryRow(ctx, query, uuid.New(), email, username, fullName, string(passHash)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, storage.ErrUserExists
		}

		return uuid.Nil, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT id, email, username, full_name, password_hash, is_deleted, created_at, updated_at
		FROM users
		WHERE email = $1 AND NOT is_deleted;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) UserByUsername(ctx context.Context, username string) (models.User, error) {
	query := `
		SELECT id, email, username, full_name, password_hash, is_deleted, created_at, updated_at
		FROM users
		WHERE username = $1 AND NOT is_deleted;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *PostgresRepo) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	query := `
		SELECT id, email, username, full_name, password_hash, is_deleted, created_at, updated_at
		FROM users
		WHERE id = $1 AND NOT is_deleted;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	var passHash string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FullName,
		&passHash,
		&u.IsDeleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	u.PassHash = []byte(passHash)

	return u, nil
}

func (r *PostgresRepo) UpdateUser(ctx context.Context, id uuid.UUID, email, username, fullName string) error {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET email = $1, username = $2, full_name = $3, updated_at = NOW()
		WHERE id = $4 AND NOT is_deleted;
	`

	tag, err := r.pool.Exec(ctx, query, email, username, fullName, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// SoftDeleteUser marks a user deleted. Rows are never physically removed.
func (r *PostgresRepo) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SoftDeleteUser"

	query := `UPDATE users SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
