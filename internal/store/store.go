package store

import (
	"context"

	"github.com/starford/lectern/internal/models"
)

// Repository is the persistence surface used by the services. Consumers
// depend on it rather than on *DB so they can be tested with fakes.
type Repository interface {
	SaveDocument(ctx context.Context, d *models.Document, nodes []models.Node) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetDocumentByPath(ctx context.Context, path string) (*models.Document, error)
	ListDocuments(ctx context.Context, st models.SourceType, limit, offset int) ([]models.Document, int, error)
	DeleteDocument(ctx context.Context, id string) error
	SourceChecksums(ctx context.Context) (map[string]string, error)

	ListNodes(ctx context.Context, documentID string) ([]models.Node, error)
	GetNode(ctx context.Context, documentID, nodeID string) (models.Node, error)
	GetCitableByNumber(ctx context.Context, documentID string, number int) (*models.CitableNode, error)
	SetNodeOrders(ctx context.Context, documentID string, orders map[string]float64) error
	RenumberNodes(ctx context.Context, documentID string, nodes []models.Node) error

	CreateAlias(ctx context.Context, a *models.CitationAlias) error
	UpdateAlias(ctx context.Context, a *models.CitationAlias) error
	DeleteAlias(ctx context.Context, id string) error
	GetAlias(ctx context.Context, id string) (*models.CitationAlias, error)
	ListAliases(ctx context.Context, documentID string) ([]models.CitationAlias, error)
	ListAllAliases(ctx context.Context) ([]models.CitationAlias, error)

	CreateFolder(ctx context.Context, f *models.Folder) error
	UpdateFolder(ctx context.Context, f *models.Folder) error
	DeleteFolder(ctx context.Context, id string) error
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	ListFolders(ctx context.Context, parentID string) ([]models.Folder, error)

	SaveNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id string) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, folderID string) ([]models.Note, error)
	ReplaceCitations(ctx context.Context, noteID string, links []models.CitationLink) error
	ListCitations(ctx context.Context, noteID string) ([]models.CitationLink, error)
	Backlinks(ctx context.Context, documentID, nodeID string) ([]models.Note, error)

	SearchParagraphs(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
