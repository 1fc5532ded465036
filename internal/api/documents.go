package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/docservice"
	"github.com/starford/lectern/internal/models"
)

// defaultMaxUploadBytes bounds uploads when no limit is configured.
const defaultMaxUploadBytes = 32 << 20

// DocumentHandler serves document, alias and citation routes.
type DocumentHandler struct {
	svc            *docservice.Service
	maxUploadBytes int64
}

// NewDocumentHandler creates a DocumentHandler. A non-positive
// maxUploadBytes uses the default of 32 MiB.
func NewDocumentHandler(svc *docservice.Service, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents
//	@Tags			documents
//	@Produce		json
//	@Param			source_type	query		string	false	"Filter by source type"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	st := models.SourceType(r.URL.Query().Get("source_type"))
	docs, total, err := h.svc.List(r.Context(), st, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: total})
}

// GetDocument handles GET /api/documents/{id}.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview handles POST /api/documents/preview.
//
//	@Summary		Parse text without storing it
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Text to parse"
//	@Success		200		{object}	docservice.Preview
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/preview [post]
func (h *DocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.Preview(req.Text, req.SourceType)
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Import handles POST /api/documents.
//
//	@Summary		Import reviewed text as a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Document to import"
//	@Success		201		{object}	docservice.ImportResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *DocumentHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Import(r.Context(), docservice.ImportRequest{
		Title:      req.Title,
		SourceType: req.SourceType,
		Text:       req.Text,
		Ignored:    req.Ignored,
	})
	if err != nil {
		writeError(w, "import document", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Upload handles POST /api/documents/upload (multipart/form-data, field
// "file", optional "source_type" and "title").
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	st := models.SourceType(r.FormValue("source_type"))
	res, err := h.svc.ImportFile(r.Context(), header.Filename, data, st, r.FormValue("title"))
	if err != nil {
		writeError(w, "upload document", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListNodes handles GET /api/documents/{id}/nodes.
func (h *DocumentHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.svc.Nodes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list nodes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

// GetParagraph handles GET /api/documents/{id}/paragraphs/{number}.
func (h *DocumentHandler) GetParagraph(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("paragraph number must be an integer"))
		return
	}
	p, err := h.svc.Paragraph(r.Context(), chi.URLParam(r, "id"), number)
	if err != nil {
		writeError(w, "get paragraph", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MoveNode handles POST /api/documents/{id}/nodes/{nodeID}/move.
func (h *DocumentHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req docservice.MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.MoveNode(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "nodeID"), req)
	if err != nil {
		writeError(w, "move node", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Resequence handles POST /api/documents/{id}/resequence.
func (h *DocumentHandler) Resequence(w http.ResponseWriter, r *http.Request) {
	var req ResequenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	nodes, err := h.svc.Resequence(r.Context(), chi.URLParam(r, "id"), req.Start)
	if err != nil {
		writeError(w, "resequence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across paragraphs
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, queryInt(r, "limit"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
