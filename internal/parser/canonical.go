package parser

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/starford/lectern/internal/models"
)

// IDFunc generates a permanent node id.
type IDFunc func() string

// Canonicalize assigns permanent ids and integer order keys to the nodes a
// review accepted. Indices in ignored are dropped. The input nodes are not
// modified. A nil newID uses random UUIDs.
func Canonicalize(nodes []models.Node, ignored map[int]bool, newID IDFunc) []models.Node {
	if newID == nil {
		newID = uuid.NewString
	}
	out := make([]models.Node, 0, len(nodes))
	for i, n := range nodes {
		if ignored[i] {
			continue
		}
		order := float64(len(out) + 1)
		switch v := n.(type) {
		case *models.StructuralNode:
			c := *v
			c.ID = newID()
			c.Order = order
			out = append(out, &c)
		case *models.CitableNode:
			c := *v
			c.ID = newID()
			c.Order = order
			out = append(out, &c)
		}
	}
	return out
}

// Resequence renumbers citable nodes consecutively from start, leaving
// structural nodes untouched. This is the only place numbers are rewritten.
func Resequence(nodes []models.Node, start int) []models.Node {
	out := make([]models.Node, len(nodes))
	next := start
	for i, n := range nodes {
		switch v := n.(type) {
		case *models.StructuralNode:
			c := *v
			out[i] = &c
		case *models.CitableNode:
			c := *v
			c.Number = next
			c.DisplayNumber = strconv.Itoa(next)
			next++
			out[i] = &c
		}
	}
	return out
}
