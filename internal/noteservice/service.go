// Package noteservice manages notes and folders. Note bodies are scanned
// for citations on every save and the resolved ones are kept as links, so a
// paragraph can list the notes that cite it.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/checksum"
	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/order"
	"github.com/starford/lectern/internal/sse"
	"github.com/starford/lectern/internal/store"
)

// Notifier receives change events after they are committed.
type Notifier interface {
	Notify(kind string, data map[string]string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, map[string]string) {}

// NoteDetail is a note with its citation links.
type NoteDetail struct {
	models.Note
	Citations []models.CitationLink `json:"citations"`
}

// NoteInput holds the editable fields of a note.
type NoteInput struct {
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Position places an item between two siblings. BeforeID precedes it and
// AfterID follows it; with both empty the item goes to the end.
type Position struct {
	BeforeID string `json:"before_id"`
	AfterID  string `json:"after_id"`
}

// Service coordinates persistence and citation scanning for notes.
type Service struct {
	repo     store.Repository
	resolver *citation.Resolver
	notifier Notifier
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDFunc replaces the id generator.
func WithIDFunc(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates a note service.
func NewService(repo store.Repository, resolver *citation.Resolver, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		resolver: resolver,
		notifier: nopNotifier{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNote returns a note with its citation links.
func (s *Service) GetNote(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.ListCitations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *n, Citations: links}, nil
}

// ListNotes returns the notes of a folder ("" for the root) in order.
func (s *Service) ListNotes(ctx context.Context, folderID string) ([]models.Note, error) {
	return s.repo.ListNotes(ctx, folderID)
}

// CreateNote stores a new note at the end of its folder.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (*NoteDetail, error) {
	if err := s.checkFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}
	key, err := s.appendKey(ctx, in.FolderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	n := &models.Note{
		ID:        s.newID(),
		FolderID:  in.FolderID,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Order:     key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.save(ctx, n)
}

// UpdateNote replaces a note's fields. A non-empty ifMatch must equal the
// stored checksum, otherwise apperr.ErrConflict is returned. Moving a note
// to another folder appends it there.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteInput, ifMatch string) (*NoteDetail, error) {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != n.Checksum {
		return nil, fmt.Errorf("noteservice: note %s changed: %w", id, apperr.ErrConflict)
	}
	if in.FolderID != n.FolderID {
		if err := s.checkFolder(ctx, in.FolderID); err != nil {
			return nil, err
		}
		key, err := s.appendKey(ctx, in.FolderID)
		if err != nil {
			return nil, err
		}
		n.FolderID, n.Order = in.FolderID, key
	}
	n.Title = strings.TrimSpace(in.Title)
	n.Body = in.Body
	n.UpdatedAt = s.now()
	return s.save(ctx, n)
}

// DeleteNote removes a note and its citation links.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(sse.NoteDeleted, map[string]string{"id": id})
	return nil
}

// MoveNote places a note in folderID between the given siblings. Only the
// moved note's key changes unless the gap is exhausted.
func (s *Service) MoveNote(ctx context.Context, id, folderID string, pos Position) (*models.Note, error) {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, folderID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, folderID)
	if err != nil {
		return nil, err
	}
	var siblings []sibling
	for _, o := range notes {
		if o.ID != id {
			siblings = append(siblings, sibling{id: o.ID, key: o.Order})
		}
	}
	key, rebalanced, err := place(siblings, pos)
	if err != nil {
		return nil, err
	}
	for i, k := range rebalanced {
		o, err := s.repo.GetNote(ctx, siblings[i].id)
		if err != nil {
			return nil, err
		}
		o.Order = k
		if err := s.repo.SaveNote(ctx, o); err != nil {
			return nil, err
		}
	}
	n.FolderID, n.Order = folderID, key
	if err := s.repo.SaveNote(ctx, n); err != nil {
		return nil, err
	}
	s.notifier.Notify(sse.NoteSaved, map[string]string{"id": n.ID})
	return n, nil
}

// Backlinks lists the notes citing a document, or one node of it.
func (s *Service) Backlinks(ctx context.Context, documentID, nodeID string) ([]models.Note, error) {
	return s.repo.Backlinks(ctx, documentID, nodeID)
}

// Rescan reindexes the citation links of every note in folderID and its
// subfolders. It is used after alias changes.
func (s *Service) Rescan(ctx context.Context, folderID string) (int, error) {
	notes, err := s.repo.ListNotes(ctx, folderID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range notes {
		if _, err := s.indexCitations(ctx, &notes[i]); err != nil {
			return count, err
		}
		count++
	}
	folders, err := s.repo.ListFolders(ctx, folderID)
	if err != nil {
		return count, err
	}
	for _, f := range folders {
		n, err := s.Rescan(ctx, f.ID)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *Service) save(ctx context.Context, n *models.Note) (*NoteDetail, error) {
	n.Checksum = checksum.Fields(n.Title, n.Body)
	if err := s.repo.SaveNote(ctx, n); err != nil {
		return nil, err
	}
	links, err := s.indexCitations(ctx, n)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(sse.NoteSaved, map[string]string{"id": n.ID})
	return &NoteDetail{Note: *n, Citations: links}, nil
}

// indexCitations scans the note body and stores its resolved citations.
func (s *Service) indexCitations(ctx context.Context, n *models.Note) ([]models.CitationLink, error) {
	res, err := s.resolver.Scan(ctx, n.Body)
	if err != nil {
		return nil, fmt.Errorf("noteservice: scan note %s: %w", n.ID, err)
	}
	links := []models.CitationLink{}
	for _, c := range res.Citations {
		if !c.IsResolved || c.Match == nil {
			continue
		}
		links = append(links, models.CitationLink{
			NoteID:     n.ID,
			DocumentID: c.DocumentID,
			NodeID:     c.NodeID,
			Reference:  c.Match.Reference,
			Start:      c.Match.Start,
			End:        c.Match.End,
		})
	}
	if err := s.repo.ReplaceCitations(ctx, n.ID, links); err != nil {
		return nil, err
	}
	if len(res.Warnings) > 0 {
		s.logger.Debug("note scanned with pattern warnings",
			slog.String("note_id", n.ID),
			slog.Int("warnings", len(res.Warnings)))
	}
	return links, nil
}

func (s *Service) checkFolder(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.repo.GetFolder(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: folder %s does not exist", apperr.ErrInvalid, id)
		}
		return err
	}
	return nil
}

func (s *Service) appendKey(ctx context.Context, folderID string) (float64, error) {
	notes, err := s.repo.ListNotes(ctx, folderID)
	if err != nil {
		return 0, err
	}
	if len(notes) == 0 {
		return order.Between(nil, nil), nil
	}
	return order.Between(order.Ptr(notes[len(notes)-1].Order), nil), nil
}

type sibling struct {
	id  string
	key float64
}

// place computes the key for an item inserted among siblings at pos.
func place(siblings []sibling, pos Position) (float64, []float64, error) {
	index := func(id string) int {
		for i, s := range siblings {
			if s.id == id {
				return i
			}
		}
		return -1
	}
	at := len(siblings)
	switch {
	case pos.BeforeID != "":
		i := index(pos.BeforeID)
		if i < 0 {
			return 0, nil, fmt.Errorf("%w: sibling %s not found", apperr.ErrInvalid, pos.BeforeID)
		}
		if pos.AfterID != "" && index(pos.AfterID) != i+1 {
			return 0, nil, fmt.Errorf("%w: %s and %s are not adjacent", apperr.ErrInvalid, pos.BeforeID, pos.AfterID)
		}
		at = i + 1
	case pos.AfterID != "":
		at = index(pos.AfterID)
		if at < 0 {
			return 0, nil, fmt.Errorf("%w: sibling %s not found", apperr.ErrInvalid, pos.AfterID)
		}
	}
	keys := make([]float64, len(siblings))
	for i, s := range siblings {
		keys[i] = s.key
	}
	key, rebalanced := order.Insert(keys, at)
	return key, rebalanced, nil
}
