package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/sambeau/jsxplay/editor"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
)

// maxBodySize bounds request bodies; sources are small.
const maxBodySize = 1 << 20

// setupRoutes registers every endpoint on the mux.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /preview", s.handlePreview)

	s.mux.HandleFunc("GET /api/code", s.handleGetCode)
	s.mux.HandleFunc("PUT /api/code", s.handlePutCode)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("POST /api/undo", s.handleUndo)

	s.mux.HandleFunc("POST /api/color", s.handleColor)
	s.mux.HandleFunc("POST /api/paint", s.handlePaint)
	s.mux.HandleFunc("POST /api/drag", s.handleDrag)
	s.mux.HandleFunc("POST /api/dragover", s.handleDragOver)
	s.mux.HandleFunc("POST /api/drop", s.handleDrop)
	s.mux.HandleFunc("POST /api/click", s.handleClick)

	s.mux.HandleFunc("GET /api/palette", s.handlePalette)
	s.mux.HandleFunc("GET /api/warning", s.handleWarning)

	s.mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	s.mux.HandleFunc("POST /api/snapshots", s.handleSaveSnapshot)
	s.mux.HandleFunc("GET /api/snapshots/{id}", s.handleGetSnapshot)
	s.mux.HandleFunc("POST /api/snapshots/{id}/restore", s.handleRestoreSnapshot)

	if s.config.Server.Dev {
		s.mux.HandleFunc("GET /__livereload", s.handleLiveReload)
		s.mux.HandleFunc("GET /__devlog", s.handleDevLog)
		s.mux.HandleFunc("DELETE /__devlog", s.handleClearDevLog)
	}
}

// stateResponse is returned by every endpoint that can change the session.
type stateResponse struct {
	Code    string         `json:"code"`
	Changed bool           `json:"changed"`
	State   string         `json:"state"`
	Warning string         `json:"warning,omitempty"`
	Preview editor.Preview `json:"preview"`
}

func (s *Server) state(changed bool) stateResponse {
	warning, _ := s.session.Warning()
	return stateResponse{
		Code:    s.session.Code(),
		Changed: changed,
		State:   s.session.State().String(),
		Warning: warning,
		Preview: s.session.Render(),
	}
}

func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"code": s.session.Code()})
}

func (s *Server) handlePutCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	before := s.session.Code()
	s.session.SetCode(req.Code)
	writeJSON(w, http.StatusOK, s.state(before != req.Code))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	before := s.session.Code()
	s.session.Reset()
	writeJSON(w, http.StatusOK, s.state(before != s.session.Code()))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Undo(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(true))
}

// handleColor arms the paint tool.
func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
		Kind  string `json:"kind"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Color == "" {
		http.Error(w, "color is required", http.StatusBadRequest)
		return
	}
	kind, err := mutate.ParseColorKind(req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.session.SelectColor(req.Color, kind)
	writeJSON(w, http.StatusOK, s.state(false))
}

// handlePaint paints the element with id, or cancels painting when id is empty.
func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		s.session.CancelPaint()
		writeJSON(w, http.StatusOK, s.state(false))
		return
	}
	changed, err := s.session.Paint(req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(changed))
}

// handleDrag starts or cancels a palette drag.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind   string `json:"kind"`
		Cancel bool   `json:"cancel"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Cancel {
		s.session.CancelDrag()
		writeJSON(w, http.StatusOK, s.state(false))
		return
	}
	if err := s.session.BeginDrag(req.Kind); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(false))
}

// handleDragOver moves a drag. Target is "container" (with id),
// "insertion" (with index), "nothing" or "leave".
func (s *Server) handleDragOver(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
		ID     string `json:"id"`
		Index  int    `json:"index"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var err error
	switch req.Target {
	case "container":
		_, err = s.session.DragOverContainer(req.ID)
	case "insertion":
		err = s.session.DragOverInsertionPoint(req.Index)
	case "nothing":
		err = s.session.DragOverNothing()
	case "leave":
		err = s.session.DragLeave()
	default:
		http.Error(w, fmt.Sprintf("unknown drag target %q", req.Target), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(false))
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	changed, err := s.session.Drop()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(changed))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Event string `json:"event"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.session.Click(req.ID, req.Event)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		editor.ClickResult
		stateResponse
	}{res, s.state(res.Painted)})
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	entries, err := editor.Palette()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWarning(w http.ResponseWriter, r *http.Request) {
	warning, visible := s.session.Warning()
	writeJSON(w, http.StatusOK, map[string]any{"warning": warning, "visible": visible})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := dateparse.ParseLocal(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid since: %v", err), http.StatusBadRequest)
			return
		}
		since = t
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	snaps, err := s.store.List(since, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req struct {
		Label string `json:"label"`
	}
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	snap, err := s.store.Save(req.Label, s.session.Code())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logInfo("snapshot %d saved", snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	snap, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	snap, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	before := s.session.Code()
	s.session.SetCode(snap.Code)
	writeJSON(w, http.StatusOK, s.state(before != snap.Code))
}

func snapshotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid snapshot id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		http.Error(w, "snapshot store is not configured", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) handleDevLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.devLog.GetLogs(r.URL.Query().Get("source"), limit)
	if err != nil {
		s.logError("failed to get logs: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Has("text") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if len(entries) == 0 {
			fmt.Fprintln(w, "No logs")
			return
		}
		// Oldest first for text output
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			fmt.Fprintf(w, "[%s] %-4s %s: %s\n", e.Timestamp.Local().Format("15:04:05"), e.Level, e.Source, e.Message)
		}
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearDevLog(w http.ResponseWriter, r *http.Request) {
	if err := s.devLog.ClearLogs(r.URL.Query().Get("source")); err != nil {
		s.logError("failed to clear logs: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON request body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError answers with a structured error. Editor rejections carry the
// session state so the client can show the warning.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var perr *perrors.Error
	if !errors.As(err, &perr) {
		s.logError("%v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set(errorCodeHeader, perr.Code)
	writeJSON(w, statusFor(perr), map[string]any{
		"error": perr,
		"state": s.session.State().String(),
		"code":  s.session.Code(),
	})
}

func statusFor(err *perrors.Error) int {
	switch err.Code {
	case "MUTATE-0001", "DB-0002":
		return http.StatusNotFound
	case "EDIT-0003", "MUTATE-0003":
		return http.StatusBadRequest
	}
	switch err.Class {
	case perrors.ClassEdit, perrors.ClassMutate:
		return http.StatusConflict
	case perrors.ClassParse, perrors.ClassStyle:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}
