package models

import "time"

// Document is an imported text with its summary counts.
type Document struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	SourceType      SourceType `json:"source_type"`
	SourcePath      string     `json:"source_path,omitempty"`
	Checksum        string     `json:"checksum"`
	StructuralCount int        `json:"structural_count"`
	CitableCount    int        `json:"citable_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SourceMetadata describes one file in the source library.
type SourceMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
