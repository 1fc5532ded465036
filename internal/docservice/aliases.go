package docservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/sse"
)

// AliasInput holds the editable fields of a citation alias.
type AliasInput struct {
	Prefix           string                 `json:"prefix"`
	Pattern          string                 `json:"pattern"`
	Extractor        models.NumberExtractor `json:"number_extractor"`
	CustomGroupIndex int                    `json:"custom_group_index"`
	DisplayFormat    string                 `json:"display_format"`
	Priority         int                    `json:"priority"`
}

// Validate checks the input against the pattern limits.
func (in *AliasInput) Validate(limits citation.Limits) error {
	if in.Extractor == "" {
		in.Extractor = models.ExtractParagraph
	}
	if in.DisplayFormat == "" {
		in.DisplayFormat = models.DefaultDisplayFormat
	}
	extractors := make([]any, len(models.NumberExtractors))
	for i, e := range models.NumberExtractors {
		extractors[i] = e
	}
	err := validation.ValidateStruct(in,
		validation.Field(&in.Prefix, validation.Required, validation.Length(1, 32)),
		validation.Field(&in.Pattern, validation.Required, validation.By(func(any) error {
			return citation.ValidatePattern(in.Pattern, limits)
		})),
		validation.Field(&in.Extractor, validation.Required, validation.In(extractors...)),
		validation.Field(&in.CustomGroupIndex, validation.Min(0)),
		validation.Field(&in.DisplayFormat, validation.Length(0, 128)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return nil
}

func (in AliasInput) apply(a *models.CitationAlias) {
	a.Prefix = strings.TrimSpace(in.Prefix)
	a.Pattern = in.Pattern
	a.Extractor = in.Extractor
	a.CustomGroupIndex = in.CustomGroupIndex
	a.DisplayFormat = in.DisplayFormat
	a.Priority = in.Priority
}

// ListAliases returns the aliases of a document.
func (s *Service) ListAliases(ctx context.Context, documentID string) ([]models.CitationAlias, error) {
	if _, err := s.repo.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.repo.ListAliases(ctx, documentID)
}

// CreateAlias adds an alias to a document. Prefixes are unique per document.
func (s *Service) CreateAlias(ctx context.Context, documentID string, in AliasInput) (*models.CitationAlias, error) {
	if err := in.Validate(s.limits); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	if err := s.checkPrefix(ctx, documentID, "", in.Prefix); err != nil {
		return nil, err
	}

	a := &models.CitationAlias{ID: uuid.NewString(), DocumentID: documentID, CreatedAt: time.Now().UTC()}
	in.apply(a)
	if err := s.repo.CreateAlias(ctx, a); err != nil {
		return nil, err
	}
	s.aliasChanged(documentID, a.ID)
	return a, nil
}

// UpdateAlias replaces the editable fields of an alias.
func (s *Service) UpdateAlias(ctx context.Context, id string, in AliasInput) (*models.CitationAlias, error) {
	if err := in.Validate(s.limits); err != nil {
		return nil, err
	}
	a, err := s.repo.GetAlias(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPrefix(ctx, a.DocumentID, a.ID, in.Prefix); err != nil {
		return nil, err
	}
	in.apply(a)
	if err := s.repo.UpdateAlias(ctx, a); err != nil {
		return nil, err
	}
	s.aliasChanged(a.DocumentID, a.ID)
	return a, nil
}

// DeleteAlias removes an alias.
func (s *Service) DeleteAlias(ctx context.Context, id string) error {
	a, err := s.repo.GetAlias(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAlias(ctx, id); err != nil {
		return err
	}
	s.aliasChanged(a.DocumentID, a.ID)
	return nil
}

func (s *Service) checkPrefix(ctx context.Context, documentID, selfID, prefix string) error {
	existing, err := s.repo.ListAliases(ctx, documentID)
	if err != nil {
		return err
	}
	prefix = strings.TrimSpace(prefix)
	for _, a := range existing {
		if a.ID != selfID && a.Prefix == prefix {
			return fmt.Errorf("docservice: prefix %q: %w", prefix, apperr.ErrAlreadyExists)
		}
	}
	return nil
}

// aliasChanged invalidates the resolver cache before listeners hear about
// the change, so a rescan triggered by the event sees the new alias set.
func (s *Service) aliasChanged(documentID, aliasID string) {
	s.resolver.InvalidateAliases()
	s.notifier.Notify(sse.AliasChanged, map[string]string{"document_id": documentID, "alias_id": aliasID})
}
