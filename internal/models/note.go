package models

import "time"

// Folder groups notes. Folders nest through ParentID.
type Folder struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Order     float64   `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is free text written by the user. Its body is scanned for citations.
type Note struct {
	ID        string    `json:"id"`
	FolderID  string    `json:"folder_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Order     float64   `json:"order"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CitationLink records that a note cites a document paragraph.
type CitationLink struct {
	NoteID     string `json:"note_id"`
	DocumentID string `json:"document_id"`
	NodeID     string `json:"node_id,omitempty"`
	Reference  string `json:"reference"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}
