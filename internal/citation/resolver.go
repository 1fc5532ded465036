package citation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
)

// Store is the persistence the resolver reads from.
type Store interface {
	ListAllAliases(ctx context.Context) ([]models.CitationAlias, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListNodes(ctx context.Context, documentID string) ([]models.Node, error)
}

// ScanResult is the outcome of scanning one text.
type ScanResult struct {
	Citations []models.ResolvedCitation `json:"citations"`
	Warnings  []PatternWarning          `json:"warnings,omitempty"`
}

// Resolver scans text against the stored alias set and resolves matches.
type Resolver struct {
	store   Store
	cache   *AliasCache
	limits  Limits
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache replaces the default alias cache.
func WithCache(c *AliasCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithLimits sets pattern limits.
func WithLimits(l Limits) ResolverOption {
	return func(r *Resolver) { r.limits = l.withDefaults() }
}

// WithLogger sets the logger used for pattern warnings.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics records scan and cache counters.
func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a Resolver with a 5s alias cache.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		cache:  NewAliasCache(5*time.Second, nil),
		limits: DefaultLimits,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InvalidateAliases drops the cached alias set. Call it after every alias
// mutation and before notifying listeners.
func (r *Resolver) InvalidateAliases() {
	r.cache.Invalidate()
}

// Aliases returns the compiled alias set, loading it on a cache miss.
func (r *Resolver) Aliases(ctx context.Context) (*AliasSet, error) {
	set, gen, ok := r.cache.Get()
	if ok {
		r.metrics.RecordCache(true)
		return set, nil
	}
	r.metrics.RecordCache(false)

	aliases, err := r.store.ListAllAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("citation: load aliases: %w", err)
	}
	set = Compile(aliases, r.limits)
	r.cache.Store(set, gen)
	return set, nil
}

// Scan finds and resolves every citation in text.
func (r *Resolver) Scan(ctx context.Context, text string) (ScanResult, error) {
	set, err := r.Aliases(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	matches := set.FindMatches(text)
	warnings := set.Warnings()
	for _, w := range warnings {
		r.logger.Warn("alias pattern skipped",
			slog.String("alias_id", w.AliasID),
			slog.String("prefix", w.Prefix),
			slog.String("reason", w.Message),
		)
	}
	r.metrics.RecordScan(len(matches), len(warnings))

	resolved, err := r.Resolve(ctx, matches)
	if err != nil {
		return ScanResult{}, err
	}
	return ScanResult{Citations: resolved, Warnings: warnings}, nil
}

// Resolve resolves matches, loading each referenced document once.
func (r *Resolver) Resolve(ctx context.Context, matches []models.CitationMatch) ([]models.ResolvedCitation, error) {
	documents := make(map[string]*models.Document)
	nodes := make(map[string][]models.Node)
	for _, m := range matches {
		id := m.Alias.DocumentID
		if _, seen := documents[id]; seen {
			continue
		}
		doc, err := r.store.GetDocument(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			documents[id] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("citation: load document %s: %w", id, err)
		}
		list, err := r.store.ListNodes(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("citation: load nodes %s: %w", id, err)
		}
		documents[id] = doc
		nodes[id] = list
	}

	nodesOf := func(id string) []models.Node { return nodes[id] }
	out := make([]models.ResolvedCitation, 0, len(matches))
	for _, m := range matches {
		out = append(out, ResolveMatch(m, documents, nodesOf))
	}
	return out, nil
}

// ResolveID resolves a doc: citation identifier. A missing node is reported
// as unresolved; a missing document is reported with the placeholder title.
func (r *Resolver) ResolveID(ctx context.Context, s string) (models.ResolvedCitation, error) {
	id, err := ParseID(s)
	if err != nil {
		return models.ResolvedCitation{}, fmt.Errorf("citation: resolve %q: %w: %v", s, apperr.ErrInvalid, err)
	}

	out := models.ResolvedCitation{DocumentID: id.DocumentID}
	doc, err := r.store.GetDocument(ctx, id.DocumentID)
	if errors.Is(err, apperr.ErrNotFound) {
		out.DocumentTitle = PlaceholderTitle
		out.DisplayText = PlaceholderTitle
		return out, nil
	}
	if err != nil {
		return models.ResolvedCitation{}, fmt.Errorf("citation: load document %s: %w", id.DocumentID, err)
	}
	out.DocumentTitle = doc.Title
	out.DisplayText = doc.Title
	out.CitationID = ID{DocumentID: id.DocumentID}.String()

	if id.NodeID == "" {
		out.IsResolved = true
		return out, nil
	}

	nodes, err := r.store.ListNodes(ctx, id.DocumentID)
	if err != nil {
		return models.ResolvedCitation{}, fmt.Errorf("citation: load nodes %s: %w", id.DocumentID, err)
	}
	for _, n := range nodes {
		if n.NodeID() != id.NodeID {
			continue
		}
		out.NodeID = n.NodeID()
		out.CitationID = id.String()
		out.IsResolved = true
		switch v := n.(type) {
		case *models.CitableNode:
			out.DisplayText = doc.Title + " " + v.DisplayNumber
		case *models.StructuralNode:
			out.DisplayText = doc.Title + ": " + v.Content
		}
		break
	}
	return out, nil
}
