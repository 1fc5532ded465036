//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; paragraph search uses LIKE on nodes.content.
	return nil
}

func ftsUpsertNode(_ context.Context, _ *sql.Tx, _, _, _ string) error { return nil }

func ftsDeleteDocument(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// SearchParagraphs performs a LIKE-based search over citable paragraphs
// (fallback when FTS5 is not compiled in).
func (db *DB) SearchParagraphs(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.document_id, d.title, n.id, n.display_number, substr(n.content, 1, 200)
		FROM nodes n JOIN documents d ON d.id = n.document_id
		WHERE n.kind = 'citable' AND n.content LIKE ?
		ORDER BY d.title, n.sort_order
		LIMIT ?
	`, like, limit)
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
