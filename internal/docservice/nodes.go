package docservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/order"
	"github.com/starford/lectern/internal/parser"
	"github.com/starford/lectern/internal/sse"
)

// MoveRequest places a node between two siblings. BeforeID is the node that
// will precede it and AfterID the node that will follow; either may be
// empty. With both empty the node moves to the end.
type MoveRequest struct {
	BeforeID string `json:"before_id"`
	AfterID  string `json:"after_id"`
}

// MoveNode gives a node a new order key between its requested neighbours.
// Other nodes keep their keys unless the gap is exhausted, in which case
// the document is rebalanced.
func (s *Service) MoveNode(ctx context.Context, documentID, nodeID string, req MoveRequest) (*models.NodeRecord, error) {
	nodes, err := s.repo.ListNodes(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var moved models.Node
	siblings := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeID() == nodeID {
			moved = n
			continue
		}
		siblings = append(siblings, n)
	}
	if moved == nil {
		return nil, fmt.Errorf("docservice: node %s: %w", nodeID, apperr.ErrNotFound)
	}

	pos, err := insertPosition(siblings, req)
	if err != nil {
		return nil, err
	}
	keys := make([]float64, len(siblings))
	for i, n := range siblings {
		keys[i] = n.SortKey()
	}
	key, rebalanced := order.Insert(keys, pos)

	updates := map[string]float64{nodeID: key}
	for i, k := range rebalanced {
		updates[siblings[i].NodeID()] = k
	}
	if err := s.repo.SetNodeOrders(ctx, documentID, updates); err != nil {
		return nil, err
	}
	if rebalanced != nil {
		s.logger.Info("node order rebalanced",
			slog.String("document_id", documentID),
			slog.Int("nodes", len(rebalanced)))
	}
	s.notifier.Notify(sse.DocumentUpdated, map[string]string{"id": documentID})

	r := models.ToRecord(moved)
	r.DocumentID = documentID
	r.Order = key
	return &r, nil
}

func indexOf(nodes []models.Node, id string) int {
	for i, n := range nodes {
		if n.NodeID() == id {
			return i
		}
	}
	return -1
}

func insertPosition(siblings []models.Node, req MoveRequest) (int, error) {
	switch {
	case req.BeforeID == "" && req.AfterID == "":
		return len(siblings), nil
	case req.BeforeID != "":
		i := indexOf(siblings, req.BeforeID)
		if i < 0 {
			return 0, invalid("before node %s not found", req.BeforeID)
		}
		if req.AfterID != "" && indexOf(siblings, req.AfterID) != i+1 {
			return 0, invalid("nodes %s and %s are not adjacent", req.BeforeID, req.AfterID)
		}
		return i + 1, nil
	default:
		j := indexOf(siblings, req.AfterID)
		if j < 0 {
			return 0, invalid("after node %s not found", req.AfterID)
		}
		return j, nil
	}
}

// Resequence renumbers the citable nodes of a document consecutively from
// start. It is the only operation that rewrites paragraph numbers.
func (s *Service) Resequence(ctx context.Context, documentID string, start int) ([]models.NodeRecord, error) {
	if start < 0 {
		return nil, invalid("start must not be negative")
	}
	if start == 0 {
		start = 1
	}
	nodes, err := s.repo.ListNodes(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	renumbered := parser.Resequence(nodes, start)
	if err := s.repo.RenumberNodes(ctx, documentID, renumbered); err != nil {
		return nil, err
	}
	s.notifier.Notify(sse.DocumentUpdated, map[string]string{"id": documentID})
	return records(documentID, renumbered), nil
}
