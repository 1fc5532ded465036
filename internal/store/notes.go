package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

const (
	folderColumns = `id, parent_id, name, sort_order, created_at`
	noteColumns   = `id, folder_id, title, body, sort_order, checksum, created_at, updated_at`
)

func scanFolder(s rowScanner) (*models.Folder, error) {
	var f models.Folder
	if err := s.Scan(&f.ID, &f.ParentID, &f.Name, &f.Order, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanNote(s rowScanner) (*models.Note, error) {
	var n models.Note
	if err := s.Scan(&n.ID, &n.FolderID, &n.Title, &n.Body, &n.Order, &n.Checksum, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateFolder inserts a folder.
func (db *DB) CreateFolder(ctx context.Context, f *models.Folder) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.ParentID, f.Name, f.Order, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create folder: %w", mapErr(err))
	}
	return nil
}

// UpdateFolder replaces name, parent and order of a folder.
func (db *DB) UpdateFolder(ctx context.Context, f *models.Folder) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE folders SET parent_id = ?, name = ?, sort_order = ? WHERE id = ?`,
		f.ParentID, f.Name, f.Order, f.ID)
	if err != nil {
		return fmt.Errorf("store: update folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: update folder %s: %w", f.ID, apperr.ErrNotFound)
	}
	return nil
}

// DeleteFolder removes an empty folder. A folder that still holds notes or
// subfolders yields apperr.ErrConflict.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	var children int
	err := db.conn.QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM folders WHERE parent_id = ?) + (SELECT count(*) FROM notes WHERE folder_id = ?)`,
		id, id).Scan(&children)
	if err != nil {
		return fmt.Errorf("store: count folder children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("store: delete folder %s: not empty: %w", id, apperr.ErrConflict)
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: delete folder %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetFolder returns one folder.
func (db *DB) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	f, err := scanFolder(db.conn.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("store: get folder %s: %w", id, mapErr(err))
	}
	return f, nil
}

// ListFolders returns the child folders of parentID ("" for the root) in order.
func (db *DB) ListFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE parent_id = ? ORDER BY sort_order, rowid`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer rows.Close()
	out := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// SaveNote inserts or updates a note.
func (db *DB) SaveNote(ctx context.Context, n *models.Note) error {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			folder_id  = excluded.folder_id,
			title      = excluded.title,
			body       = excluded.body,
			sort_order = excluded.sort_order,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.ID, n.FolderID, n.Title, n.Body, n.Order, n.Checksum, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: save note: %w", mapErr(err))
	}
	return nil
}

// DeleteNote removes a note and its citation links.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: delete note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetNote returns one note.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("store: get note %s: %w", id, mapErr(err))
	}
	return n, nil
}

// ListNotes returns the notes of a folder ("" for the root) in order.
func (db *DB) ListNotes(ctx context.Context, folderID string) ([]models.Note, error) {
	return db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE folder_id = ? ORDER BY sort_order, rowid`, folderID)
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// ReplaceCitations replaces the citation links of a note.
func (db *DB) ReplaceCitations(ctx context.Context, noteID string, links []models.CitationLink) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("store: clear citations: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO citations (note_id, document_id, node_id, reference, start_pos, end_pos)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare citation insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.ExecContext(ctx, noteID, l.DocumentID, l.NodeID, l.Reference, l.Start, l.End); err != nil {
				return fmt.Errorf("store: insert citation: %w", mapErr(err))
			}
		}
	}
	return tx.Commit()
}

// ListCitations returns the citation links of a note by position.
func (db *DB) ListCitations(ctx context.Context, noteID string) ([]models.CitationLink, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT note_id, document_id, node_id, reference, start_pos, end_pos
		FROM citations WHERE note_id = ? ORDER BY start_pos`, noteID)
	if err != nil {
		return nil, fmt.Errorf("store: list citations: %w", err)
	}
	defer rows.Close()
	out := []models.CitationLink{}
	for rows.Next() {
		var l models.CitationLink
		if err := rows.Scan(&l.NoteID, &l.DocumentID, &l.NodeID, &l.Reference, &l.Start, &l.End); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Backlinks returns the notes that cite a document, or one of its nodes
// when nodeID is non-empty.
func (db *DB) Backlinks(ctx context.Context, documentID, nodeID string) ([]models.Note, error) {
	query := `SELECT DISTINCT n.id, n.folder_id, n.title, n.body, n.sort_order, n.checksum, n.created_at, n.updated_at
		FROM notes n JOIN citations c ON c.note_id = n.id
		WHERE c.document_id = ?`
	args := []any{documentID}
	if nodeID != "" {
		query += ` AND c.node_id = ?`
		args = append(args, nodeID)
	}
	return db.queryNotes(ctx, query+` ORDER BY n.title, n.id`, args...)
}
