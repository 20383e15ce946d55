package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sambeau/jsxplay/config"
	"github.com/sambeau/jsxplay/editor"
)

func newTestServer(t *testing.T, setup func(*config.Config)) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.BaseDir = dir
	cfg.Source.File = filepath.Join(dir, "app.jsx")
	cfg.Store.DSN = ":memory:"
	cfg.Dev.LogDatabase = filepath.Join(dir, "dev.db")
	cfg.Logging.Level = "error"
	cfg.Compression.Enabled = false
	if setup != nil {
		setup(cfg)
	}

	srv, err := New(cfg, "", &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var st stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return st
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	State string `json:"state"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var eb errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &eb); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return eb
}

func TestNew(t *testing.T) {
	srv, h := newTestServer(t, nil)

	rec := do(t, h, "GET", "/api/code", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != editor.InitialCode {
		t.Errorf("expected the initial document, got %q", body["code"])
	}
	if srv.store == nil {
		t.Error("expected snapshot store to be open")
	}
	if srv.devLog != nil {
		t.Error("dev log should only open in dev mode")
	}
}

func TestNew_LoadsSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.jsx")
	if err := os.WriteFile(path, []byte(`<Box id="saved">Saved</Box>`), 0644); err != nil {
		t.Fatal(err)
	}

	srv, _ := newTestServer(t, func(c *config.Config) { c.Source.File = path })
	if got := srv.Session().Code(); got != `<Box id="saved">Saved</Box>` {
		t.Errorf("expected file contents, got %q", got)
	}

	// Reset goes back to the configured initial document, not the file
	srv.Session().Reset()
	if got := srv.Session().Code(); got != editor.InitialCode {
		t.Errorf("expected reset to initial code, got %q", got)
	}
}

func TestPutCode_WritesSourceFile(t *testing.T) {
	srv, h := newTestServer(t, nil)

	rec := do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\">x</Box>"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	st := decodeState(t, rec)
	if !st.Changed || st.Code != `<Box id="a">x</Box>` {
		t.Errorf("unexpected state %+v", st)
	}
	if !strings.Contains(st.Preview.HTML, ">x<") {
		t.Errorf("preview should render the new code: %q", st.Preview.HTML)
	}

	data, err := os.ReadFile(srv.config.Source.File)
	if err != nil {
		t.Fatalf("source file not written: %v", err)
	}
	if string(data) != `<Box id="a">x</Box>` {
		t.Errorf("unexpected file contents %q", data)
	}
	if srv.ChangeSeq() != 1 {
		t.Errorf("expected change seq 1, got %d", srv.ChangeSeq())
	}
}

func TestDragAndDrop(t *testing.T) {
	srv, h := newTestServer(t, nil)
	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\">x</Box>"}`)

	rec := do(t, h, "POST", "/api/drag", `{"kind":"Chip"}`)
	if st := decodeState(t, rec); st.State != "dragging" {
		t.Fatalf("expected dragging, got %q", st.State)
	}

	rec = do(t, h, "POST", "/api/dragover", `{"target":"container","id":"a"}`)
	if st := decodeState(t, rec); st.State != "over-container" {
		t.Fatalf("expected over-container, got %q", st.State)
	}

	rec = do(t, h, "POST", "/api/drop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	st := decodeState(t, rec)
	if !st.Changed || !strings.Contains(st.Code, `<Chip sx={{ mt: 2 }} label="New Chip"`) {
		t.Errorf("chip not inserted: %q", st.Code)
	}
	if st.State != "idle" {
		t.Errorf("expected idle after drop, got %q", st.State)
	}
	if got := srv.Session().Code(); !strings.HasSuffix(got, "</Box>") {
		t.Errorf("container should still close the document: %q", got)
	}
}

func TestDrop_RootRejected(t *testing.T) {
	_, h := newTestServer(t, nil)

	do(t, h, "POST", "/api/drag", `{"kind":"Chip"}`)
	do(t, h, "POST", "/api/dragover", `{"target":"insertion","index":0}`)
	rec := do(t, h, "POST", "/api/drop", "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	eb := decodeError(t, rec)
	if eb.Error.Code != "EDIT-0002" {
		t.Errorf("expected EDIT-0002, got %s", eb.Error.Code)
	}
	if eb.Error.Message != "Only Box components can be added as root elements." {
		t.Errorf("unexpected message %q", eb.Error.Message)
	}
	if eb.State != "idle" {
		t.Errorf("expected idle after rejected drop, got %q", eb.State)
	}

	rec = do(t, h, "GET", "/api/warning", "")
	var w struct {
		Warning string `json:"warning"`
		Visible bool   `json:"visible"`
	}
	json.Unmarshal(rec.Body.Bytes(), &w)
	if !w.Visible || w.Warning != eb.Error.Message {
		t.Errorf("expected visible warning, got %+v", w)
	}
}

func TestDragErrors(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/api/drag", `{"kind":"Sparkle"}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "EDIT-0003" {
		t.Errorf("unknown kind: got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "POST", "/api/dragover", `{"target":"nothing"}`)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Error.Code != "EDIT-0004" {
		t.Errorf("dragover while idle: got %d %s", rec.Code, rec.Body.String())
	}

	do(t, h, "POST", "/api/drag", `{"kind":"Box"}`)
	rec = do(t, h, "POST", "/api/dragover", `{"target":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown target: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, "POST", "/api/drag", `{"cancel":true}`)
	if st := decodeState(t, rec); st.State != "idle" {
		t.Errorf("expected idle after cancel, got %q", st.State)
	}

	rec = do(t, h, "POST", "/api/drag", `{"kind":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", rec.Code)
	}
}

func TestUndoAndReset(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/api/undo", "")
	if rec.Code != http.StatusConflict || decodeError(t, rec).Error.Code != "EDIT-0005" {
		t.Fatalf("expected nothing to undo, got %d %s", rec.Code, rec.Body.String())
	}

	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\"/>"}`)
	rec = do(t, h, "POST", "/api/undo", "")
	if st := decodeState(t, rec); st.Code != editor.InitialCode {
		t.Errorf("undo should restore the initial code, got %q", st.Code)
	}

	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"b\"/>"}`)
	rec = do(t, h, "POST", "/api/reset", "")
	st := decodeState(t, rec)
	if !st.Changed || st.Code != editor.InitialCode {
		t.Errorf("unexpected reset state %+v", st)
	}
}

func TestPaint(t *testing.T) {
	srv, h := newTestServer(t, nil)
	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\">x</Box>"}`)

	rec := do(t, h, "POST", "/api/color", `{"color":"#f44336","kind":"diagonal"}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "MUTATE-0003" {
		t.Errorf("bad kind: got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, "POST", "/api/color", `{"kind":"text"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing color: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, "POST", "/api/color", `{"color":"#f44336","kind":"background"}`)
	st := decodeState(t, rec)
	if !strings.HasPrefix(st.Preview.Cursor, "url(") {
		t.Errorf("expected paint cursor, got %q", st.Preview.Cursor)
	}

	rec = do(t, h, "POST", "/api/paint", `{"id":"a"}`)
	st = decodeState(t, rec)
	if !st.Changed || !strings.Contains(st.Code, "#f44336") {
		t.Errorf("color not applied: %q", st.Code)
	}
	if st.Preview.Cursor != "" {
		t.Errorf("cursor should be released after painting, got %q", st.Preview.Cursor)
	}
	if srv.Session().Painting() {
		t.Error("paint tool should be disarmed")
	}

	rec = do(t, h, "POST", "/api/paint", `{"id":"a"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("paint without a color: expected 409, got %d", rec.Code)
	}

	do(t, h, "POST", "/api/color", `{"color":"#000000","kind":"text"}`)
	rec = do(t, h, "POST", "/api/paint", `{"id":""}`)
	if st := decodeState(t, rec); st.Changed || st.Preview.Cursor != "" {
		t.Errorf("empty id should cancel painting: %+v", st)
	}
}

func TestClick_Dialog(t *testing.T) {
	srv, h := newTestServer(t, nil)

	do(t, h, "POST", "/api/drag", `{"kind":"Dialog"}`)
	do(t, h, "POST", "/api/dragover", `{"target":"container","id":"box-1"}`)
	rec := do(t, h, "POST", "/api/drop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dialog drop failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "POST", "/api/click", `{"id":"open-dialog-button"}`)
	var res struct {
		DialogOpen bool   `json:"dialog_open"`
		Code       string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !res.DialogOpen || !srv.Session().DialogOpen() {
		t.Error("expected the dialog to open")
	}
	if res.Code != srv.Session().Code() {
		t.Error("click response should carry the current code")
	}

	// A second Dialog is rejected
	do(t, h, "POST", "/api/drag", `{"kind":"Dialog"}`)
	do(t, h, "POST", "/api/dragover", `{"target":"container","id":"box-1"}`)
	rec = do(t, h, "POST", "/api/drop", "")
	if rec.Code != http.StatusConflict || decodeError(t, rec).Error.Code != "EDIT-0001" {
		t.Errorf("expected singleton rejection, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPalette(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, "GET", "/api/palette", "")
	var entries []editor.PaletteEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 palette entries, got %d", len(entries))
	}
	if entries[0].Kind != "Box" || !entries[0].Root {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
}

func TestSnapshots(t *testing.T) {
	_, h := newTestServer(t, nil)
	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"v1\"/>"}`)

	rec := do(t, h, "POST", "/api/snapshots", `{"label":"first"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
		Code  string `json:"code"`
	}
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.Label != "first" || snap.Code != `<Box id="v1"/>` {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"v2\"/>"}`)
	do(t, h, "POST", "/api/snapshots", "")

	rec = do(t, h, "GET", "/api/snapshots", "")
	var list []struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 2 || list[0].Code != `<Box id="v2"/>` {
		t.Errorf("expected newest first, got %+v", list)
	}

	rec = do(t, h, "GET", "/api/snapshots?since=2999-01-01", "")
	var future []json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &future)
	if rec.Code != http.StatusOK || len(future) != 0 {
		t.Errorf("expected no snapshots in the future, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "GET", "/api/snapshots?since=not+a+date", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad since: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, "POST", "/api/snapshots/1/restore", "")
	if st := decodeState(t, rec); st.Code != `<Box id="v1"/>` || !st.Changed {
		t.Errorf("restore failed: %+v", st)
	}

	rec = do(t, h, "GET", "/api/snapshots/99", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Error.Code != "DB-0002" {
		t.Errorf("missing snapshot: got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "GET", "/api/snapshots/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestPages(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
	page := rec.Body.String()
	for _, want := range []string{`data-kind="Box"`, `data-kind="Dialog"`, `id="preview"`, "Component Visualizer", `data-index="1"`} {
		if !strings.Contains(page, want) {
			t.Errorf("index page should contain %q", want)
		}
	}

	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\">unclosed"}`)
	rec = do(t, h, "GET", "/preview", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, h, "GET", "/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDevMode(t *testing.T) {
	srv, h := newTestServer(t, func(c *config.Config) { c.Server.Dev = true })
	if srv.devLog == nil {
		t.Fatal("expected dev log in dev mode")
	}

	rec := do(t, h, "GET", "/__livereload", "")
	var status liveReloadStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Seq != 0 {
		t.Errorf("expected seq 0, got %d", status.Seq)
	}

	do(t, h, "PUT", "/api/code", `{"code":"<Box id=\"a\"><Sparkle/></Box>"}`)

	rec = do(t, h, "GET", "/__livereload", "")
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Seq != 1 || status.Log == 0 {
		t.Errorf("expected a change and a log entry, got %+v", status)
	}

	rec = do(t, h, "GET", "/__devlog?text", "")
	if !strings.Contains(rec.Body.String(), "Sparkle") {
		t.Errorf("dev log should mention the unresolved component:\n%s", rec.Body.String())
	}

	rec = do(t, h, "GET", "/", "")
	if !strings.Contains(rec.Body.String(), "/__livereload") {
		t.Error("live reload script should be injected in dev mode")
	}

	rec = do(t, h, "DELETE", "/__devlog", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if n, _ := srv.devLog.Count(""); n != 0 {
		t.Errorf("expected empty dev log, got %d", n)
	}
}

func TestDevEndpointsHiddenOutsideDev(t *testing.T) {
	_, h := newTestServer(t, nil)
	for _, path := range []string{"/__livereload", "/__devlog"} {
		if rec := do(t, h, "GET", path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestWatcherReload(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w, err := NewWatcher(srv, srv.config.Source.File, &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(srv.config.Source.File, []byte(`<Box id="external"/>`), 0644); err != nil {
		t.Fatal(err)
	}
	if !w.Reload() {
		t.Fatal("expected reload to change the session")
	}
	if got := srv.Session().Code(); got != `<Box id="external"/>` {
		t.Errorf("unexpected code %q", got)
	}

	// The session's own write-back is not a change
	if w.Reload() {
		t.Error("second reload should be a no-op")
	}
	if w.Reloads() != 1 {
		t.Errorf("expected 1 reload, got %d", w.Reloads())
	}
}
