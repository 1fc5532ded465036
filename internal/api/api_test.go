package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/docservice"
	"github.com/starford/lectern/internal/noteservice"
	"github.com/starford/lectern/internal/testutil"
)

const catechismText = "PART ONE\n1 God, infinitely perfect.\n2 So that this call should resound.\n3 Those who welcomed the call."

// testEnv sets up a temp library, SQLite DB, services, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	router, _ := testEnvWithLibrary(t, authToken != "", authToken, nil)
	return router
}

func testEnvWithLibrary(t *testing.T, authEnabled bool, authToken string, events http.Handler) (http.Handler, string) {
	t.Helper()
	dir, files := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	logger := testutil.DiscardLogger()
	resolver := citation.NewResolver(db, citation.WithLogger(logger))
	docs := docservice.NewService(db, resolver, docservice.WithFiles(files), docservice.WithLogger(logger))
	notes := noteservice.NewService(db, resolver, noteservice.WithLogger(logger))
	router := NewRouter(docs, notes, RouterConfig{
		AuthEnabled:    authEnabled,
		Token:          authToken,
		MaxUploadBytes: 1 << 20,
		Events:         events,
	})
	return router, dir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func importCatechism(t *testing.T, router http.Handler) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/documents", ImportRequest{Title: "Catechism", SourceType: "catechism", Text: catechismText})
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[docservice.ImportResult](t, w)
	return res.Document.ID
}

func TestPreviewEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents/preview", PreviewRequest{Text: catechismText, SourceType: "catechism"})
	if w.Code != http.StatusOK {
		t.Fatalf("preview = %d, body = %s", w.Code, w.Body.String())
	}
	p := decode[docservice.Preview](t, w)
	if p.Counts.Structural != 1 || p.Counts.Citable != 3 {
		t.Errorf("counts = %+v", p.Counts)
	}

	w = do(t, router, http.MethodPost, "/documents/preview", PreviewRequest{Text: "x", SourceType: "nope"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad source type = %d, want 400", w.Code)
	}
}

func TestImportAndGetDocument(t *testing.T) {
	router := testEnv(t, "")
	id := importCatechism(t, router)

	w := do(t, router, http.MethodGet, "/documents/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	doc := decode[docservice.DocumentDetail](t, w)
	if doc.Title != "Catechism" || len(doc.Nodes) != 4 {
		t.Errorf("document = %+v", doc)
	}

	w = do(t, router, http.MethodGet, "/documents/"+id+"/paragraphs/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("paragraph = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/documents/"+id+"/paragraphs/two", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric paragraph = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/documents?source_type=catechism", nil)
	list := decode[DocumentListResponse](t, w)
	if list.Total != 1 {
		t.Errorf("total = %d", list.Total)
	}

	w = do(t, router, http.MethodDelete, "/documents/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/documents/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestImportMissingTitle(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/documents", ImportRequest{Text: "1 a"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title = %d, want 400", w.Code)
	}
}

func TestMoveAndResequence(t *testing.T) {
	router := testEnv(t, "")
	id := importCatechism(t, router)

	nodes := decode[struct {
		Nodes []struct {
			ID    string  `json:"id"`
			Order float64 `json:"order"`
		} `json:"nodes"`
	}](t, do(t, router, http.MethodGet, "/documents/"+id+"/nodes", nil)).Nodes

	w := do(t, router, http.MethodPost, "/documents/"+id+"/nodes/"+nodes[3].ID+"/move",
		docservice.MoveRequest{BeforeID: nodes[0].ID, AfterID: nodes[1].ID})
	if w.Code != http.StatusOK {
		t.Fatalf("move = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/documents/"+id+"/resequence", ResequenceRequest{Start: 10})
	if w.Code != http.StatusOK {
		t.Fatalf("resequence = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/documents/"+id+"/paragraphs/10", nil)
	if w.Code != http.StatusOK {
		t.Errorf("paragraph 10 after resequence = %d", w.Code)
	}
}

func TestAliasesAndCitations(t *testing.T) {
	router := testEnv(t, "")
	id := importCatechism(t, router)

	alias := docservice.AliasInput{Prefix: "CCC", Pattern: `CCC (\d+)`}
	w := do(t, router, http.MethodPost, "/documents/"+id+"/aliases", alias)
	if w.Code != http.StatusCreated {
		t.Fatalf("create alias = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodPost, "/documents/"+id+"/aliases", alias)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate alias = %d, want 409", w.Code)
	}
	w = do(t, router, http.MethodPost, "/documents/"+id+"/aliases", docservice.AliasInput{Prefix: "X", Pattern: "("})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid pattern = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/citations/scan", ScanRequest{Text: "Compare CCC 2 with CCC 999."})
	if w.Code != http.StatusOK {
		t.Fatalf("scan = %d", w.Code)
	}
	res := decode[citation.ScanResult](t, w)
	if len(res.Citations) != 2 || !res.Citations[0].IsResolved || res.Citations[1].IsResolved {
		t.Fatalf("citations = %+v", res.Citations)
	}

	w = do(t, router, http.MethodGet, "/citations/resolve?id=doc:"+id+":"+res.Citations[0].NodeID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/citations/resolve?id=doc:", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", w.Code)
	}
}

func TestNotesEndpoints(t *testing.T) {
	router := testEnv(t, "")
	id := importCatechism(t, router)
	do(t, router, http.MethodPost, "/documents/"+id+"/aliases", docservice.AliasInput{Prefix: "CCC", Pattern: `CCC (\d+)`})

	w := do(t, router, http.MethodPost, "/notes", noteservice.NoteInput{Title: "Study", Body: "On CCC 3."})
	if w.Code != http.StatusCreated {
		t.Fatalf("create note = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[noteservice.NoteDetail](t, w)
	if len(created.Citations) != 1 {
		t.Fatalf("citations = %+v", created.Citations)
	}

	w = do(t, router, http.MethodGet, "/citations/backlinks?document_id="+id+"&node_id="+created.Citations[0].NodeID, nil)
	back := decode[struct {
		Notes []struct{ ID string } `json:"notes"`
	}](t, w)
	if len(back.Notes) != 1 || back.Notes[0].ID != created.ID {
		t.Errorf("backlinks = %+v", back)
	}

	// Update with correct checksum, then with the now stale one.
	req := httptest.NewRequest(http.MethodPut, "/notes/"+created.ID, bytes.NewReader([]byte(`{"title":"Study","body":"v2"}`)))
	req.Header.Set("If-Match", `"`+created.Checksum+`"`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}
	req = httptest.NewRequest(http.MethodPut, "/notes/"+created.ID, bytes.NewReader([]byte(`{"title":"Study","body":"v3"}`)))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestRescanAfterAliasCreated(t *testing.T) {
	router := testEnv(t, "")
	id := importCatechism(t, router)

	w := do(t, router, http.MethodPost, "/notes", noteservice.NoteInput{Title: "Early", Body: "See CCC 2."})
	created := decode[noteservice.NoteDetail](t, w)
	if len(created.Citations) != 0 {
		t.Fatalf("citations before alias = %+v", created.Citations)
	}

	do(t, router, http.MethodPost, "/documents/"+id+"/aliases", docservice.AliasInput{Prefix: "CCC", Pattern: `CCC (\d+)`})
	w = do(t, router, http.MethodPost, "/citations/rescan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rescan = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]int](t, w)["rescanned"]; got != 1 {
		t.Errorf("rescanned = %d, want 1", got)
	}

	w = do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if note := decode[noteservice.NoteDetail](t, w); len(note.Citations) != 1 {
		t.Errorf("citations after rescan = %+v", note.Citations)
	}
}

func TestFoldersEndpoints(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Study"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d", w.Code)
	}
	folder := decode[struct{ ID string }](t, w)

	do(t, router, http.MethodPost, "/notes", noteservice.NoteInput{FolderID: folder.ID, Title: "a"})
	w = do(t, router, http.MethodDelete, "/folders/"+folder.ID, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete non-empty folder = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes?folder_id="+folder.ID, nil)
	notes := decode[map[string][]any](t, w)["notes"]
	if len(notes) != 1 {
		t.Errorf("notes in folder = %d, want 1", len(notes))
	}

	w = do(t, router, http.MethodPut, "/folders/"+folder.ID, FolderRequest{Name: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank rename = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	importCatechism(t, router)

	w := do(t, router, http.MethodGet, "/search?q=welcomed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[SearchResponse](t, w); len(got.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(got.Results))
	}

	w = do(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForGET(t *testing.T) {
	router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/documents?access_token=secret123", nil); w.Code != http.StatusOK {
		t.Errorf("GET with query token = %d, want 200", w.Code)
	}
	w := do(t, router, http.MethodPost, "/folders?access_token=secret123", FolderRequest{Name: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithLibrary(t, true, "secret", blockingSSE)
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithLibrary(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Upload tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadDocument(t *testing.T) {
	router, libDir := testEnvWithLibrary(t, false, "", nil)

	w := uploadFile(t, router, "Didache.md", []byte("# Didache\n\n1. There are two ways.\n2. The way of life."),
		map[string]string{"source_type": "treatise"})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[docservice.ImportResult](t, w)
	if res.Document.Title != "Didache" || res.Document.CitableCount != 2 {
		t.Errorf("document = %+v", res.Document)
	}
	if _, err := os.Stat(filepath.Join(libDir, "treatise", "Didache.md")); err != nil {
		t.Errorf("file not in library: %v", err)
	}
}

func TestUploadDocument_Unsupported(t *testing.T) {
	router, _ := testEnvWithLibrary(t, false, "", nil)
	if w := uploadFile(t, router, "image.png", []byte("png"), nil); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported upload = %d, want 400", w.Code)
	}
}

func TestUploadDocument_MissingFileField(t *testing.T) {
	router, _ := testEnvWithLibrary(t, false, "", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
