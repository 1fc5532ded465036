package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/docservice"
	"github.com/starford/lectern/internal/noteservice"
)

// RouterConfig controls authentication and upload limits of the API.
type RouterConfig struct {
	AuthEnabled    bool
	Token          string
	MaxUploadBytes int64
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(docs *docservice.Service, notes *noteservice.Service, cfg RouterConfig) chi.Router {
	dh := NewDocumentHandler(docs, cfg.MaxUploadBytes)
	nh := NewNoteHandler(notes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Documents.
	r.Get("/documents", dh.ListDocuments)
	r.Post("/documents", dh.Import)
	r.Post("/documents/preview", dh.Preview)
	r.Post("/documents/upload", dh.Upload)
	r.Route("/documents/{id}", func(r chi.Router) {
		r.Get("/", dh.GetDocument)
		r.Delete("/", dh.DeleteDocument)
		r.Get("/nodes", dh.ListNodes)
		r.Post("/nodes/{nodeID}/move", dh.MoveNode)
		r.Get("/paragraphs/{number}", dh.GetParagraph)
		r.Post("/resequence", dh.Resequence)
		r.Get("/aliases", dh.ListAliases)
		r.Post("/aliases", dh.CreateAlias)
	})

	// Aliases.
	r.Put("/aliases/{id}", dh.UpdateAlias)
	r.Delete("/aliases/{id}", dh.DeleteAlias)

	// Citations.
	r.Post("/citations/scan", dh.ScanCitations)
	r.Get("/citations/resolve", dh.ResolveCitation)
	r.Get("/citations/backlinks", nh.Backlinks)
	r.Post("/citations/rescan", nh.RescanNotes)

	// Search.
	r.Get("/search", dh.Search)

	// Notes and folders.
	r.Get("/notes", nh.ListNotes)
	r.Post("/notes", nh.CreateNote)
	r.Get("/notes/{id}", nh.GetNote)
	r.Put("/notes/{id}", nh.UpdateNote)
	r.Delete("/notes/{id}", nh.DeleteNote)
	r.Post("/notes/{id}/move", nh.MoveNote)

	r.Get("/folders", nh.ListFolders)
	r.Post("/folders", nh.CreateFolder)
	r.Put("/folders/{id}", nh.RenameFolder)
	r.Delete("/folders/{id}", nh.DeleteFolder)
	r.Post("/folders/{id}/move", nh.MoveFolder)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
