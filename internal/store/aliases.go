package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

const aliasColumns = `id, document_id, prefix, pattern, number_extractor, custom_group_index, display_format, priority, created_at`

func scanAlias(s rowScanner) (*models.CitationAlias, error) {
	var a models.CitationAlias
	var ext string
	if err := s.Scan(&a.ID, &a.DocumentID, &a.Prefix, &a.Pattern, &ext,
		&a.CustomGroupIndex, &a.DisplayFormat, &a.Priority, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Extractor = models.NumberExtractor(ext)
	return &a, nil
}

// CreateAlias inserts a new alias. A duplicate prefix within the document
// yields apperr.ErrAlreadyExists.
func (db *DB) CreateAlias(ctx context.Context, a *models.CitationAlias) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO aliases (`+aliasColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DocumentID, a.Prefix, a.Pattern, string(a.Extractor),
		a.CustomGroupIndex, a.DisplayFormat, a.Priority, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create alias: %w", mapErr(err))
	}
	return nil
}

// UpdateAlias replaces the editable fields of an alias.
func (db *DB) UpdateAlias(ctx context.Context, a *models.CitationAlias) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE aliases SET prefix = ?, pattern = ?, number_extractor = ?,
			custom_group_index = ?, display_format = ?, priority = ?
		WHERE id = ?`,
		a.Prefix, a.Pattern, string(a.Extractor), a.CustomGroupIndex, a.DisplayFormat, a.Priority, a.ID)
	if err != nil {
		return fmt.Errorf("store: update alias: %w", mapErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: update alias %s: %w", a.ID, apperr.ErrNotFound)
	}
	return nil
}

// DeleteAlias removes an alias.
func (db *DB) DeleteAlias(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM aliases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete alias: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: delete alias %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetAlias returns one alias.
func (db *DB) GetAlias(ctx context.Context, id string) (*models.CitationAlias, error) {
	a, err := scanAlias(db.conn.QueryRowContext(ctx, `SELECT `+aliasColumns+` FROM aliases WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("store: get alias %s: %w", id, mapErr(err))
	}
	return a, nil
}

// ListAliases returns the aliases of one document in declaration order.
func (db *DB) ListAliases(ctx context.Context, documentID string) ([]models.CitationAlias, error) {
	return db.queryAliases(ctx, `SELECT `+aliasColumns+` FROM aliases WHERE document_id = ? ORDER BY created_at, rowid`, documentID)
}

// ListAllAliases returns every alias in declaration order.
func (db *DB) ListAllAliases(ctx context.Context) ([]models.CitationAlias, error) {
	return db.queryAliases(ctx, `SELECT `+aliasColumns+` FROM aliases ORDER BY created_at, rowid`)
}

func (db *DB) queryAliases(ctx context.Context, query string, args ...any) ([]models.CitationAlias, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list aliases: %w", err)
	}
	defer rows.Close()

	out := []models.CitationAlias{}
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
