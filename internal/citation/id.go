package citation

import (
	"errors"
	"strings"
)

// DocPrefix starts every document citation identifier.
const DocPrefix = "doc:"

var (
	// ErrNotDocCitation is returned for identifiers of another citation family.
	ErrNotDocCitation = errors.New("citation: not a document citation")
	// ErrMalformedID is returned for doc: identifiers without a document id.
	ErrMalformedID = errors.New("citation: malformed document citation")
)

// ID addresses a document, optionally narrowed to one node.
type ID struct {
	DocumentID string
	NodeID     string
}

// String formats id as doc:<documentId> or doc:<documentId>:<nodeId>.
func (id ID) String() string {
	if id.NodeID == "" {
		return DocPrefix + id.DocumentID
	}
	return DocPrefix + id.DocumentID + ":" + id.NodeID
}

// IsDocCitation reports whether s belongs to the document citation family.
func IsDocCitation(s string) bool {
	return strings.HasPrefix(s, DocPrefix)
}

// ParseID parses a doc: citation identifier.
func ParseID(s string) (ID, error) {
	if !IsDocCitation(s) {
		return ID{}, ErrNotDocCitation
	}
	parts := strings.SplitN(strings.TrimPrefix(s, DocPrefix), ":", 2)
	id := ID{DocumentID: parts[0]}
	if len(parts) == 2 {
		id.NodeID = parts[1]
		if id.NodeID == "" {
			return ID{}, ErrMalformedID
		}
	}
	if id.DocumentID == "" {
		return ID{}, ErrMalformedID
	}
	return id, nil
}
