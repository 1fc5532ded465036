package models

import "fmt"

// Node kinds as stored and serialised.
const (
	KindStructural = "structural"
	KindCitable    = "citable"
)

// Node is a single element of a parsed document. The set of implementations
// is closed: *StructuralNode and *CitableNode.
type Node interface {
	NodeID() string
	Text() string
	SortKey() float64
	node()
}

// StructuralNode is a heading-like element. It never carries a paragraph
// number and never takes part in citation numbering.
type StructuralNode struct {
	ID      string
	Content string
	Level   Level
	Order   float64
}

// CitableNode is a numbered paragraph. Number and DisplayNumber come
// verbatim from the source text.
type CitableNode struct {
	ID            string
	Content       string
	Number        int
	DisplayNumber string
	Order         float64
}

func (n *StructuralNode) NodeID() string   { return n.ID }
func (n *StructuralNode) Text() string     { return n.Content }
func (n *StructuralNode) SortKey() float64 { return n.Order }
func (*StructuralNode) node()              {}

// Alignment is derived from the node level.
func (n *StructuralNode) Alignment() Alignment { return n.Level.Alignment() }

func (n *CitableNode) NodeID() string   { return n.ID }
func (n *CitableNode) Text() string     { return n.Content }
func (n *CitableNode) SortKey() float64 { return n.Order }
func (*CitableNode) node()              {}

// NodeRecord is the flat wire/storage form of a Node.
type NodeRecord struct {
	ID            string    `json:"id,omitempty"`
	DocumentID    string    `json:"document_id,omitempty"`
	Kind          string    `json:"kind"`
	Content       string    `json:"content"`
	Level         Level     `json:"level,omitempty"`
	Alignment     Alignment `json:"alignment,omitempty"`
	Number        int       `json:"number,omitempty"`
	DisplayNumber string    `json:"display_number,omitempty"`
	Order         float64   `json:"order"`
}

// ToRecord flattens n.
func ToRecord(n Node) NodeRecord {
	switch v := n.(type) {
	case *StructuralNode:
		return NodeRecord{
			ID:        v.ID,
			Kind:      KindStructural,
			Content:   v.Content,
			Level:     v.Level,
			Alignment: v.Alignment(),
			Order:     v.Order,
		}
	case *CitableNode:
		return NodeRecord{
			ID:            v.ID,
			Kind:          KindCitable,
			Content:       v.Content,
			Number:        v.Number,
			DisplayNumber: v.DisplayNumber,
			Order:         v.Order,
		}
	default:
		panic(fmt.Sprintf("models: unknown node type %T", n))
	}
}

// FromRecord rebuilds a Node from its flat form.
func FromRecord(r NodeRecord) (Node, error) {
	switch r.Kind {
	case KindStructural:
		if !r.Level.Valid() {
			return nil, fmt.Errorf("models: invalid level %q", r.Level)
		}
		return &StructuralNode{ID: r.ID, Content: r.Content, Level: r.Level, Order: r.Order}, nil
	case KindCitable:
		return &CitableNode{
			ID:            r.ID,
			Content:       r.Content,
			Number:        r.Number,
			DisplayNumber: r.DisplayNumber,
			Order:         r.Order,
		}, nil
	default:
		return nil, fmt.Errorf("models: unknown node kind %q", r.Kind)
	}
}

// ToRecords flattens a node list.
func ToRecords(nodes []Node) []NodeRecord {
	out := make([]NodeRecord, len(nodes))
	for i, n := range nodes {
		out[i] = ToRecord(n)
	}
	return out
}
