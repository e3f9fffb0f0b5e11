package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_revisions (
	id         BIGSERIAL PRIMARY KEY,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	latestRevisionSQL = `SELECT document FROM catalog_revisions ORDER BY id DESC LIMIT 1`
	insertRevisionSQL = `INSERT INTO catalog_revisions (document) VALUES ($1) RETURNING id, created_at`
	listRevisionsSQL  = `SELECT id, created_at FROM catalog_revisions ORDER BY id DESC LIMIT $1`
)

// PostgresStore keeps every published catalog as a JSONB revision; Load returns
// the newest one.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the revisions table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate catalog_revisions: %w", err)
	}
	return nil
}

// Load decodes the newest revision.
func (p *PostgresStore) Load(ctx context.Context) (catalog.Raw, error) {
	var doc []byte
	if err := p.pool.QueryRow(ctx, latestRevisionSQL).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Raw{}, ErrNoCatalog
		}
		return catalog.Raw{}, fmt.Errorf("load catalog revision: %w", err)
	}
	return catalog.Decode(doc, catalog.FormatJSON)
}

// Publish inserts raw as the newest revision.
func (p *PostgresStore) Publish(ctx context.Context, raw catalog.Raw) (Revision, error) {
	doc, err := json.Marshal(raw)
	if err != nil {
		return Revision{}, fmt.Errorf("encode catalog: %w", err)
	}
	var rev Revision
	if err := p.pool.QueryRow(ctx, insertRevisionSQL, doc).Scan(&rev.ID, &rev.CreatedAt); err != nil {
		return Revision{}, fmt.Errorf("insert catalog revision: %w", err)
	}
	return rev, nil
}

// Revisions lists the newest revisions first.
func (p *PostgresStore) Revisions(ctx context.Context, limit int) ([]Revision, error) {
	rows, err := p.pool.Query(ctx, listRevisionsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list catalog revisions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Revision, error) {
		var rev Revision
		err := row.Scan(&rev.ID, &rev.CreatedAt)
		return rev, err
	})
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
