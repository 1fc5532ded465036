// Package extract turns source files into plain UTF-8 text for the
// document parser. Line breaks in the output are meaningful: each heading
// and each paragraph of the source starts on its own line.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Text is the result of extracting one file.
type Text struct {
	Title string
	Body  string
}

// Extractor converts raw file bytes into plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Text, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("extract: unsupported file extension: %q", ext)
	}
}

// IsSupported checks if a file extension can be imported.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// File extracts text from r using the extractor for filename.
func File(r io.Reader, filename string) (*Text, error) {
	e, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return e.Extract(r, filename)
}

// titleFromName strips directory and extension from a filename.
func titleFromName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalize drops a byte order mark, unifies line endings and replaces
// invalid UTF-8.
func normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return s
}

// joinLines writes non-empty blocks one per line.
func joinLines(blocks []string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n")
}
