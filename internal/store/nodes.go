package store

import (
	"context"
	"fmt"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

const nodeColumns = `id, document_id, kind, content, level, number, display_number, sort_order`

func scanNode(s rowScanner) (models.Node, error) {
	var r models.NodeRecord
	var level string
	if err := s.Scan(&r.ID, &r.DocumentID, &r.Kind, &r.Content, &level,
		&r.Number, &r.DisplayNumber, &r.Order); err != nil {
		return nil, err
	}
	r.Level = models.Level(level)
	return models.FromRecord(r)
}

// ListNodes returns the nodes of a document in order.
func (db *DB) ListNodes(ctx context.Context, documentID string) ([]models.Node, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE document_id = ? ORDER BY sort_order, rowid`, documentID)
	if err != nil {
		return nil, fmt.Errorf("store: list nodes: %w", err)
	}
	defer rows.Close()

	out := []models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNode returns one node of a document.
func (db *DB) GetNode(ctx context.Context, documentID, nodeID string) (models.Node, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE document_id = ? AND id = ?`, documentID, nodeID)
	n, err := scanNode(row)
	if err != nil {
		return nil, fmt.Errorf("store: get node %s: %w", nodeID, mapErr(err))
	}
	return n, nil
}

// GetCitableByNumber returns the first citable node of a document with the
// given paragraph number.
func (db *DB) GetCitableByNumber(ctx context.Context, documentID string, number int) (*models.CitableNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE document_id = ? AND kind = ? AND number = ?
		 ORDER BY sort_order, rowid LIMIT 1`, documentID, models.KindCitable, number)
	n, err := scanNode(row)
	if err != nil {
		return nil, fmt.Errorf("store: get paragraph %d: %w", number, mapErr(err))
	}
	return n.(*models.CitableNode), nil
}

// SetNodeOrders updates the order keys of nodes in one transaction.
func (db *DB) SetNodeOrders(ctx context.Context, documentID string, orders map[string]float64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `UPDATE nodes SET sort_order = ? WHERE document_id = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare order update: %w", err)
	}
	defer stmt.Close()
	for id, order := range orders {
		res, err := stmt.ExecContext(ctx, order, documentID, id)
		if err != nil {
			return fmt.Errorf("store: update order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("store: node %s: %w", id, apperr.ErrNotFound)
		}
	}
	return tx.Commit()
}

// RenumberNodes updates number and display number of citable nodes.
func (db *DB) RenumberNodes(ctx context.Context, documentID string, nodes []models.Node) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE nodes SET number = ?, display_number = ? WHERE document_id = ? AND id = ? AND kind = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare renumber: %w", err)
	}
	defer stmt.Close()
	for _, n := range nodes {
		c, ok := n.(*models.CitableNode)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, c.Number, c.DisplayNumber, documentID, c.ID, models.KindCitable); err != nil {
			return fmt.Errorf("store: renumber node: %w", err)
		}
	}
	return tx.Commit()
}
