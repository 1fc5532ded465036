package api

import (
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/store"
)

// PreviewRequest is the request body for a trial parse.
type PreviewRequest struct {
	Text       string            `json:"text" example:"PART ONE\n1 God, infinitely perfect..." validate:"required"`
	SourceType models.SourceType `json:"source_type" example:"catechism"`
}

// ImportRequest is the request body for importing reviewed text.
type ImportRequest struct {
	Title      string            `json:"title" example:"Catechism" validate:"required"`
	Text       string            `json:"text" validate:"required"`
	SourceType models.SourceType `json:"source_type" example:"catechism"`
	// Ignored lists preview node indices dropped during review.
	Ignored []int `json:"ignored,omitempty"`
}

// ResequenceRequest is the request body for renumbering paragraphs.
type ResequenceRequest struct {
	Start int `json:"start" example:"1"`
}

// ScanRequest is the request body for citation scanning.
type ScanRequest struct {
	Text string `json:"text" example:"See CCC 1234." validate:"required"`
}

// FolderRequest is the request body for creating or renaming a folder.
type FolderRequest struct {
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name" example:"Study" validate:"required"`
}

// MoveRequest places a note or folder inside a container between siblings.
type MoveRequest struct {
	ContainerID string `json:"container_id,omitempty"`
	BeforeID    string `json:"before_id,omitempty"`
	AfterID     string `json:"after_id,omitempty"`
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.Document `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results" validate:"required"`
}
