package models

import "time"

// NumberExtractor selects how a pattern match is turned into a reference.
type NumberExtractor string

const (
	ExtractParagraph    NumberExtractor = "paragraph"
	ExtractSection      NumberExtractor = "section"
	ExtractChapterVerse NumberExtractor = "chapter:verse"
	ExtractCustom       NumberExtractor = "custom"
)

// NumberExtractors lists every valid extractor.
var NumberExtractors = []NumberExtractor{ExtractParagraph, ExtractSection, ExtractChapterVerse, ExtractCustom}

// DefaultDisplayFormat is used when an alias has no display format.
const DefaultDisplayFormat = "{prefix} {number}"

// CitationAlias is a user-defined shorthand bound to one document.
type CitationAlias struct {
	ID               string          `json:"id"`
	DocumentID       string          `json:"document_id"`
	Prefix           string          `json:"prefix"`
	Pattern          string          `json:"pattern"`
	Extractor        NumberExtractor `json:"number_extractor"`
	CustomGroupIndex int             `json:"custom_group_index,omitempty"`
	DisplayFormat    string          `json:"display_format"`
	Priority         int             `json:"priority"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CitationMatch is one accepted pattern hit in a scanned text.
type CitationMatch struct {
	Text      string        `json:"text"`
	Start     int           `json:"start"`
	End       int           `json:"end"`
	Alias     CitationAlias `json:"alias"`
	Reference string        `json:"reference"`
	RangeEnd  string        `json:"range_end,omitempty"`
}

// Overlaps reports whether the half-open spans of m and o intersect.
func (m CitationMatch) Overlaps(start, end int) bool {
	return m.Start < end && start < m.End
}

// ResolvedCitation is a match mapped onto a document and, when found, one
// of its paragraphs.
type ResolvedCitation struct {
	Match         *CitationMatch `json:"match,omitempty"`
	DocumentID    string         `json:"document_id"`
	DocumentTitle string         `json:"document_title"`
	NodeID        string         `json:"node_id,omitempty"`
	CitationID    string         `json:"citation_id,omitempty"`
	DisplayText   string         `json:"display_text"`
	IsResolved    bool           `json:"is_resolved"`
}
