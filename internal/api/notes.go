package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/noteservice"
)

// NoteHandler serves note, folder and backlink routes.
type NoteHandler struct {
	svc *noteservice.Service
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(svc *noteservice.Service) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// ListNotes handles GET /api/notes?folder_id=.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), r.URL.Query().Get("folder_id"))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// GetNote handles GET /api/notes/{id}.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+n.Checksum+`"`)
	writeJSON(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in noteservice.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.svc.CreateNote(r.Context(), in)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Note id"
//	@Param			If-Match	header		string					false	"Checksum for optimistic concurrency"
//	@Param			body		body		noteservice.NoteInput	true	"Updated note"
//	@Success		200			{object}	noteservice.NoteDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var in noteservice.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	n, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), in, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", `"`+n.Checksum+`"`)
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /api/notes/{id}/move.
func (h *NoteHandler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.MoveNote(r.Context(), chi.URLParam(r, "id"), req.ContainerID,
		noteservice.Position{BeforeID: req.BeforeID, AfterID: req.AfterID})
	if err != nil {
		writeError(w, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ListFolders handles GET /api/folders?parent_id=.
func (h *NoteHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.ListFolders(r.Context(), r.URL.Query().Get("parent_id"))
	if err != nil {
		writeError(w, "list folders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// CreateFolder handles POST /api/folders.
func (h *NoteHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.CreateFolder(r.Context(), req.ParentID, req.Name)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// RenameFolder handles PUT /api/folders/{id}.
func (h *NoteHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.RenameFolder(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, "rename folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// MoveFolder handles POST /api/folders/{id}/move.
func (h *NoteHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.MoveFolder(r.Context(), chi.URLParam(r, "id"), req.ContainerID,
		noteservice.Position{BeforeID: req.BeforeID, AfterID: req.AfterID})
	if err != nil {
		writeError(w, "move folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}. Non-empty folders yield 409.
func (h *NoteHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backlinks handles GET /api/citations/backlinks?document_id=&node_id=.
func (h *NoteHandler) Backlinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docID := q.Get("document_id")
	if docID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'document_id' is required"))
		return
	}
	notes, err := h.svc.Backlinks(r.Context(), docID, q.Get("node_id"))
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// RescanNotes reindexes note citation links under ?folder_id= (root when empty).
func (h *NoteHandler) RescanNotes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Rescan(r.Context(), r.URL.Query().Get("folder_id"))
	if err != nil {
		writeError(w, "rescan notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rescanned": n})
}
