//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS paragraphs_fts USING fts5(
			document_id UNINDEXED,
			node_id UNINDEXED,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsertNode(ctx context.Context, tx *sql.Tx, documentID, nodeID, content string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM paragraphs_fts WHERE node_id = ?`, nodeID)
	_, err := tx.ExecContext(ctx, `INSERT INTO paragraphs_fts (document_id, node_id, content) VALUES (?, ?, ?)`,
		documentID, nodeID, content)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteDocument(ctx context.Context, tx *sql.Tx, documentID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs_fts WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// SearchParagraphs performs an FTS5 search over citable paragraphs and
// returns hits with snippets.
func (db *DB) SearchParagraphs(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.document_id,
		       d.title,
		       f.node_id,
		       n.display_number,
		       snippet(paragraphs_fts, 2, '<b>', '</b>', '...', 32)
		FROM paragraphs_fts f
		JOIN documents d ON d.id = f.document_id
		JOIN nodes n ON n.id = f.node_id
		WHERE paragraphs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.DocumentTitle, &r.NodeID, &r.DisplayNumber, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
