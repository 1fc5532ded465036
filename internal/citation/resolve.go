package citation

import (
	"strconv"
	"strings"

	"github.com/starford/lectern/internal/models"
)

// PlaceholderTitle names a document that could not be found.
const PlaceholderTitle = "Unknown document"

// NodesFunc returns the nodes of a document in order.
type NodesFunc func(documentID string) []models.Node

// ResolveMatch maps a match onto its alias document and, where the
// reference exists, a paragraph of that document. A missing document or
// paragraph yields IsResolved=false.
func ResolveMatch(m models.CitationMatch, documents map[string]*models.Document, nodesOf NodesFunc) models.ResolvedCitation {
	match := m
	out := models.ResolvedCitation{
		Match:       &match,
		DocumentID:  m.Alias.DocumentID,
		DisplayText: DisplayText(m),
	}

	doc, ok := documents[m.Alias.DocumentID]
	if !ok || doc == nil {
		out.DocumentTitle = PlaceholderTitle
		return out
	}
	out.DocumentTitle = doc.Title
	out.CitationID = ID{DocumentID: doc.ID}.String()

	var nodes []models.Node
	if nodesOf != nil {
		nodes = nodesOf(doc.ID)
	}
	if node := findNode(m, nodes); node != nil {
		out.NodeID = node.ID
		out.CitationID = ID{DocumentID: doc.ID, NodeID: node.ID}.String()
		out.IsResolved = true
	}
	return out
}

// findNode returns the first citable node addressed by the match reference.
// Numbers are expected to be unique but duplicates are tolerated.
func findNode(m models.CitationMatch, nodes []models.Node) *models.CitableNode {
	if m.Alias.Extractor == models.ExtractParagraph || m.Alias.Extractor == "" {
		n, err := strconv.Atoi(m.Reference)
		if err != nil {
			return nil
		}
		for _, node := range nodes {
			if c, ok := node.(*models.CitableNode); ok && c.Number == n {
				return c
			}
		}
		return nil
	}
	for _, node := range nodes {
		if c, ok := node.(*models.CitableNode); ok && c.DisplayNumber == m.Reference {
			return c
		}
	}
	return nil
}

// DisplayText renders the alias display format for a match.
func DisplayText(m models.CitationMatch) string {
	number := m.Reference
	if m.RangeEnd != "" {
		number += "-" + m.RangeEnd
	}
	return FormatDisplay(m.Alias.DisplayFormat, m.Alias.Prefix, number)
}

// FormatDisplay substitutes {prefix} and {number} into format.
func FormatDisplay(format, prefix, number string) string {
	if format == "" {
		format = models.DefaultDisplayFormat
	}
	return strings.NewReplacer("{prefix}", prefix, "{number}", number).Replace(format)
}
