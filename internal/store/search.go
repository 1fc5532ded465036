package store

// SearchResult is one paragraph search hit.
type SearchResult struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	NodeID        string `json:"node_id"`
	DisplayNumber string `json:"display_number"`
	Snippet       string `json:"snippet"`
}

const defaultSearchLimit = 20
