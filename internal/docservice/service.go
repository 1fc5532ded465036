// Package docservice implements the document use-cases: preview and import,
// node reordering, explicit resequencing, citation alias management and
// citation scanning.
package docservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/parser"
	"github.com/starford/lectern/internal/sse"
	"github.com/starford/lectern/internal/storage"
	"github.com/starford/lectern/internal/store"
)

// Notifier receives change events after they are committed.
type Notifier interface {
	Notify(kind string, data map[string]string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, map[string]string) {}

// Service coordinates the parser, the citation resolver and persistence.
type Service struct {
	repo          store.Repository
	files         storage.Provider
	resolver      *citation.Resolver
	notifier      Notifier
	metrics       *metrics.Metrics
	logger        *slog.Logger
	limits        citation.Limits
	defaultSource models.SourceType
	newID         parser.IDFunc
}

// Option configures a Service.
type Option func(*Service)

// WithFiles stores uploaded source files in the library.
func WithFiles(p storage.Provider) Option {
	return func(s *Service) { s.files = p }
}

// WithNotifier sets the change event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics records parse counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLimits sets the alias pattern limits used for validation.
func WithLimits(l citation.Limits) Option {
	return func(s *Service) { s.limits = l }
}

// WithDefaultSourceType sets the source type used when none is given.
func WithDefaultSourceType(st models.SourceType) Option {
	return func(s *Service) { s.defaultSource = st }
}

// WithIDFunc replaces the id generator, for deterministic tests.
func WithIDFunc(f parser.IDFunc) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates a document service. resolver must read from repo.
func NewService(repo store.Repository, resolver *citation.Resolver, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		resolver:      resolver,
		notifier:      nopNotifier{},
		logger:        slog.Default(),
		limits:        citation.DefaultLimits,
		defaultSource: models.SourceGeneric,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DocumentDetail is a document with its nodes and aliases.
type DocumentDetail struct {
	models.Document
	Nodes   []models.NodeRecord    `json:"nodes"`
	Aliases []models.CitationAlias `json:"aliases"`
}

// Get returns a document with its nodes and aliases.
func (s *Service) Get(ctx context.Context, id string) (*DocumentDetail, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	aliases, err := s.repo.ListAliases(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, Nodes: records(id, nodes), Aliases: aliases}, nil
}

// List returns documents, optionally filtered by source type.
func (s *Service) List(ctx context.Context, st models.SourceType, limit, offset int) ([]models.Document, int, error) {
	if st != "" && !st.Valid() {
		return nil, 0, invalid("unknown source type %q", st)
	}
	return s.repo.ListDocuments(ctx, st, limit, offset)
}

// Delete removes a document, its nodes and aliases.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.resolver.InvalidateAliases()
	s.notifier.Notify(sse.DocumentDeleted, map[string]string{"id": id})
	return nil
}

// Nodes returns the nodes of a document in order.
func (s *Service) Nodes(ctx context.Context, id string) ([]models.NodeRecord, error) {
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	return records(id, nodes), nil
}

// Paragraph returns the citable node with the given number.
func (s *Service) Paragraph(ctx context.Context, documentID string, number int) (*models.NodeRecord, error) {
	c, err := s.repo.GetCitableByNumber(ctx, documentID, number)
	if err != nil {
		return nil, err
	}
	r := models.ToRecord(c)
	r.DocumentID = documentID
	return &r, nil
}

// Search finds citable paragraphs containing query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if query == "" {
		return nil, invalid("query is required")
	}
	return s.repo.SearchParagraphs(ctx, query, limit)
}

// ScanText finds and resolves every citation in text.
func (s *Service) ScanText(ctx context.Context, text string) (citation.ScanResult, error) {
	return s.resolver.Scan(ctx, text)
}

// ResolveID resolves a doc: citation identifier.
func (s *Service) ResolveID(ctx context.Context, id string) (models.ResolvedCitation, error) {
	return s.resolver.ResolveID(ctx, id)
}

func records(documentID string, nodes []models.Node) []models.NodeRecord {
	out := models.ToRecords(nodes)
	for i := range out {
		out[i].DocumentID = documentID
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalid, fmt.Sprintf(format, args...))
}
