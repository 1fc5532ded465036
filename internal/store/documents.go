package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

const documentColumns = `id, title, source_type, source_path, checksum, structural_count, citable_count, created_at, updated_at`

func scanDocument(s rowScanner) (*models.Document, error) {
	var d models.Document
	var st string
	if err := s.Scan(&d.ID, &d.Title, &st, &d.SourcePath, &d.Checksum,
		&d.StructuralCount, &d.CitableCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.SourceType = models.SourceType(st)
	return &d, nil
}

// SaveDocument inserts or replaces a document together with its full node
// list. Existing nodes of the document are replaced.
func (db *DB) SaveDocument(ctx context.Context, d *models.Document, nodes []models.Node) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			source_type      = excluded.source_type,
			source_path      = excluded.source_path,
			checksum         = excluded.checksum,
			structural_count = excluded.structural_count,
			citable_count    = excluded.citable_count,
			updated_at       = excluded.updated_at
	`, d.ID, d.Title, string(d.SourceType), d.SourcePath, d.Checksum,
		d.StructuralCount, d.CitableCount, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert document: %w", mapErr(err))
	}

	if err := ftsDeleteDocument(ctx, tx, d.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE document_id = ?`, d.ID); err != nil {
		return fmt.Errorf("store: clear nodes: %w", err)
	}
	if err := insertNodes(ctx, tx, d.ID, nodes); err != nil {
		return err
	}
	return tx.Commit()
}

func insertNodes(ctx context.Context, tx *sql.Tx, documentID string, nodes []models.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, document_id, kind, content, level, number, display_number, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare node insert: %w", err)
	}
	defer stmt.Close()
	for _, n := range nodes {
		r := models.ToRecord(n)
		if r.ID == "" {
			return fmt.Errorf("store: node without id in document %s", documentID)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, documentID, r.Kind, r.Content, string(r.Level),
			r.Number, r.DisplayNumber, r.Order); err != nil {
			return fmt.Errorf("store: insert node: %w", mapErr(err))
		}
		if r.Kind == models.KindCitable {
			if err := ftsUpsertNode(ctx, tx, documentID, r.ID, r.Content); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetDocument returns a document by id.
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("store: get document %s: %w", id, mapErr(err))
	}
	return d, nil
}

// GetDocumentByPath returns the document imported from a library path.
func (db *DB) GetDocumentByPath(ctx context.Context, path string) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE source_path = ? LIMIT 1`, path)
	d, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("store: get document by path %s: %w", path, mapErr(err))
	}
	return d, nil
}

// ListDocuments returns documents ordered by title, filtered by source type
// when st is non-empty, and the total count before paging.
func (db *DB) ListDocuments(ctx context.Context, st models.SourceType, limit, offset int) ([]models.Document, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	args := []any{}
	if st != "" {
		where = ` WHERE source_type = ?`
		args = append(args, string(st))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count documents: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents`+where+` ORDER BY title, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	out := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// DeleteDocument removes a document with its nodes and aliases. Note
// citation links pointing at it are kept and resolve as missing.
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDeleteDocument(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: delete document %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// SourceChecksums maps every library path with an imported document to
// its stored checksum.
func (db *DB) SourceChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source_path, checksum FROM documents WHERE source_path != ''`)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
