package docservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/checksum"
	"github.com/starford/lectern/internal/extract"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/parser"
	"github.com/starford/lectern/internal/sse"
)

// Preview is a trial parse. Nodes carry no ids and nothing is stored.
type Preview struct {
	SourceType models.SourceType   `json:"source_type"`
	Nodes      []models.NodeRecord `json:"nodes"`
	Counts     parser.Counts       `json:"counts"`
	Warnings   []string            `json:"warnings,omitempty"`
}

// ImportRequest describes a document to persist.
type ImportRequest struct {
	Title      string
	SourceType models.SourceType
	Text       string
	// SourcePath is the library path the text came from, if any. A second
	// import from the same path replaces the earlier document.
	SourcePath string
	// Checksum of the source bytes. Defaults to the checksum of Text.
	Checksum string
	// Ignored lists preview node indices the review dropped.
	Ignored []int
}

// ImportResult is the stored document and any review warnings.
type ImportResult struct {
	Document *models.Document `json:"document"`
	Counts   parser.Counts    `json:"counts"`
	Warnings []string         `json:"warnings,omitempty"`
	Replaced bool             `json:"replaced"`
}

func (s *Service) sourceType(st models.SourceType) (models.SourceType, error) {
	if st == "" {
		return s.defaultSource, nil
	}
	if !st.Valid() {
		return "", invalid("unknown source type %q", st)
	}
	return st, nil
}

// Preview parses text without persisting it.
func (s *Service) Preview(text string, st models.SourceType) (*Preview, error) {
	st, err := s.sourceType(st)
	if err != nil {
		return nil, err
	}
	res := parser.Parse(text, st)
	return &Preview{
		SourceType: st,
		Nodes:      models.ToRecords(res.Nodes),
		Counts:     res.Counts,
		Warnings:   parseWarnings(res, st),
	}, nil
}

// parseWarnings flags results a reviewer should look at before importing.
func parseWarnings(res parser.Result, st models.SourceType) []string {
	var out []string
	if res.Counts.Total == 0 {
		out = append(out, "no content recognised")
	} else if res.Counts.Citable == 0 && st != models.SourceScripture {
		out = append(out, fmt.Sprintf("no numbered paragraphs found for source type %s", st))
	}
	seen := make(map[int]bool)
	for _, n := range res.Nodes {
		c, ok := n.(*models.CitableNode)
		if !ok {
			continue
		}
		if seen[c.Number] {
			out = append(out, fmt.Sprintf("paragraph number %d appears more than once", c.Number))
		}
		seen[c.Number] = true
	}
	return out
}

// Import parses, canonicalizes and stores a document.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	st, err := s.sourceType(req.SourceType)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}

	res := parser.Parse(req.Text, st)
	ignored := make(map[int]bool, len(req.Ignored))
	for _, i := range req.Ignored {
		if i < 0 || i >= len(res.Nodes) {
			return nil, invalid("ignored index %d out of range", i)
		}
		ignored[i] = true
	}
	nodes := parser.Canonicalize(res.Nodes, ignored, s.newID)
	counts := parser.CountNodes(nodes)

	cs := req.Checksum
	if cs == "" {
		cs = checksum.Sum([]byte(req.Text))
	}
	now := time.Now().UTC()
	doc := &models.Document{
		Title:           title,
		SourceType:      st,
		SourcePath:      req.SourcePath,
		Checksum:        cs,
		StructuralCount: counts.Structural,
		CitableCount:    counts.Citable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	replaced := false
	if req.SourcePath != "" {
		prev, err := s.repo.GetDocumentByPath(ctx, req.SourcePath)
		switch {
		case err == nil:
			doc.ID = prev.ID
			doc.CreatedAt = prev.CreatedAt
			replaced = true
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}
	if doc.ID == "" {
		doc.ID = s.id()
	}

	if err := s.repo.SaveDocument(ctx, doc, nodes); err != nil {
		return nil, err
	}
	s.metrics.RecordParse(string(st), counts.Structural, counts.Citable)

	kind := sse.DocumentImported
	if replaced {
		kind = sse.DocumentUpdated
	}
	s.notifier.Notify(kind, map[string]string{"id": doc.ID, "title": doc.Title})
	return &ImportResult{Document: doc, Counts: counts, Warnings: parseWarnings(res, st), Replaced: replaced}, nil
}

// ImportFile extracts text from a source file and imports it. When the
// service has a library, the file is also written to
// <source-type>/<filename> and the document is bound to that path.
func (s *Service) ImportFile(ctx context.Context, filename string, data []byte, st models.SourceType, title string) (*ImportResult, error) {
	st, err := s.sourceType(st)
	if err != nil {
		return nil, err
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || !extract.IsSupported(name) {
		return nil, invalid("unsupported file %q", filename)
	}
	text, err := extract.File(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	if title == "" {
		title = text.Title
	}

	req := ImportRequest{
		Title:      title,
		SourceType: st,
		Text:       text.Body,
		Checksum:   checksum.Sum(data),
	}
	if s.files == nil {
		return s.Import(ctx, req)
	}
	// Import before writing so a library watcher sees a matching checksum
	// and skips the file.
	req.SourcePath = path.Join(string(st), name)
	res, err := s.Import(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.files.Write(req.SourcePath, data); err != nil {
		return nil, err
	}
	return res, nil
}

// SyncFile imports a library file found at libPath unless a document with
// the same checksum was already imported from it. The source type is the
// first path segment when it names one, otherwise the default.
func (s *Service) SyncFile(ctx context.Context, libPath string, data []byte) (bool, error) {
	cs := checksum.Sum(data)
	prev, err := s.repo.GetDocumentByPath(ctx, libPath)
	switch {
	case err == nil && prev.Checksum == cs:
		return false, nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return false, err
	}
	text, err := extract.File(bytes.NewReader(data), libPath)
	if err != nil {
		return false, fmt.Errorf("docservice: extract %s: %w", libPath, err)
	}
	title := text.Title
	if prev != nil {
		title = prev.Title
	}
	_, err = s.Import(ctx, ImportRequest{
		Title:      title,
		SourceType: s.sourceTypeForPath(libPath),
		Text:       text.Body,
		SourcePath: libPath,
		Checksum:   cs,
	})
	return err == nil, err
}

// RemoveSource deletes the document imported from libPath, if any.
func (s *Service) RemoveSource(ctx context.Context, libPath string) error {
	doc, err := s.repo.GetDocumentByPath(ctx, libPath)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// SourceChecksums maps library paths to the checksum of the document
// imported from each.
func (s *Service) SourceChecksums(ctx context.Context) (map[string]string, error) {
	return s.repo.SourceChecksums(ctx)
}

func (s *Service) sourceTypeForPath(libPath string) models.SourceType {
	if dir, _, ok := strings.Cut(libPath, "/"); ok {
		if st := models.SourceType(dir); st.Valid() {
			return st
		}
	}
	return s.defaultSource
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}
