// Package postgres provides the durable ledger backed by PostgreSQL.
//
// Expected schema (see migrations/001_download_link.sql):
//
//	CREATE TABLE download_link (
//	    id                UUID PRIMARY KEY,
//	    object_key        TEXT NOT NULL,
//	    bucket            TEXT NOT NULL DEFAULT '',
//	    endpoint          TEXT NOT NULL DEFAULT '',
//	    download_filename TEXT NOT NULL DEFAULT '',
//	    expires_at        TIMESTAMPTZ NOT NULL,
//	    max_downloads     BIGINT,
//	    downloads_served  BIGINT NOT NULL DEFAULT 0,
//	    created_at        TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements sharelink.Ledger using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL ledger
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL ledger with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("download link already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateLink(ctx context.Context, record *sharelink.LinkRecord) error {
	query := `
		INSERT INTO download_link (
			id, object_key, bucket, endpoint, download_filename,
			expires_at, max_downloads, downloads_served, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.ObjectKey, record.Bucket, record.Endpoint,
		record.DownloadFilename, record.ExpiresAt, record.MaxDownloads,
		record.DownloadsServed, record.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create link", err)
	}

	return nil
}

func (r *Repository) GetLink(ctx context.Context, id uuid.UUID) (*sharelink.LinkRecord, error) {
	query := `
		SELECT id, object_key, bucket, endpoint, download_filename,
		       expires_at, max_downloads, downloads_served, created_at
		FROM download_link WHERE id = $1`

	var record sharelink.LinkRecord
	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID, &record.ObjectKey, &record.Bucket, &record.Endpoint,
		&record.DownloadFilename, &record.ExpiresAt, &record.MaxDownloads,
		&record.DownloadsServed, &record.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sharelink.ErrLinkNotFound
		}
		return nil, r.handlePostgresError("get link", err)
	}

	return &record, nil
}

func (r *Repository) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE download_link SET downloads_served = downloads_served + 1 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("increment downloads", err)
	}
	if tag.RowsAffected() == 0 {
		return sharelink.ErrLinkNotFound
	}

	return nil
}

func (r *Repository) ListLinks(ctx context.Context, limit, offset int64) ([]*sharelink.LinkRecord, error) {
	query := `
		SELECT id, object_key, bucket, endpoint, download_filename,
		       expires_at, max_downloads, downloads_served, created_at
		FROM download_link
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.handlePostgresError("list links", err)
	}
	defer rows.Close()

	var records []*sharelink.LinkRecord
	for rows.Next() {
		var record sharelink.LinkRecord
		if err := rows.Scan(
			&record.ID, &record.ObjectKey, &record.Bucket, &record.Endpoint,
			&record.DownloadFilename, &record.ExpiresAt, &record.MaxDownloads,
			&record.DownloadsServed, &record.CreatedAt); err != nil {
			return nil, r.handlePostgresError("list links", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list links", err)
	}

	return records, nil
}

func (r *Repository) DeleteLink(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM download_link WHERE id = $1`, id)
	if err != nil {
		return false, r.handlePostgresError("delete link", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteExpiredOrExhausted(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM download_link
		WHERE expires_at < now()
		   OR (max_downloads IS NOT NULL AND downloads_served >= max_downloads)`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, r.handlePostgresError("delete expired links", err)
	}
	return tag.RowsAffected(), nil
}
