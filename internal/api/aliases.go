package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/docservice"
)

// ListAliases handles GET /api/documents/{id}/aliases.
func (h *DocumentHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.svc.ListAliases(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list aliases", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": aliases})
}

// CreateAlias handles POST /api/documents/{id}/aliases.
//
//	@Summary		Add a citation alias to a document
//	@Tags			aliases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		docservice.AliasInput	true	"Alias"
//	@Success		201		{object}	models.CitationAlias
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/aliases [post]
func (h *DocumentHandler) CreateAlias(w http.ResponseWriter, r *http.Request) {
	var in docservice.AliasInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.svc.CreateAlias(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "create alias", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAlias handles PUT /api/aliases/{id}.
func (h *DocumentHandler) UpdateAlias(w http.ResponseWriter, r *http.Request) {
	var in docservice.AliasInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.svc.UpdateAlias(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update alias", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAlias handles DELETE /api/aliases/{id}.
func (h *DocumentHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAlias(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete alias", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScanCitations handles POST /api/citations/scan.
//
//	@Summary		Find and resolve citations in text
//	@Tags			citations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScanRequest	true	"Text to scan"
//	@Success		200		{object}	citation.ScanResult
//	@Security		BearerAuth
//	@Router			/citations/scan [post]
func (h *DocumentHandler) ScanCitations(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ScanText(r.Context(), req.Text)
	if err != nil {
		writeError(w, "scan citations", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResolveCitation handles GET /api/citations/resolve?id=doc:<document>[:<node>].
func (h *DocumentHandler) ResolveCitation(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'id' is required"))
		return
	}
	c, err := h.svc.ResolveID(r.Context(), id)
	if err != nil {
		writeError(w, "resolve citation", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
