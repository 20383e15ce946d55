package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Precompiled regex for case-insensitive tag matching
var (
	bodyTagRe = regexp.MustCompile(`(?i)</body>`)
	htmlTagRe = regexp.MustCompile(`(?i)</html>`)
)

// liveReloadScript is injected into HTML responses in dev mode. It reloads
// the page whenever the source or the dev log changes.
const liveReloadScript = `<script>
(function() {
  let last = null;
  const pollInterval = 1000;

  async function checkForChanges() {
    try {
      const resp = await fetch('/__livereload');
      const data = await resp.json();
      const key = data.seq + ':' + data.log;
      if (last === null) {
        last = key;
      } else if (key !== last) {
        location.reload();
        return;
      }
    } catch (e) {
      // Server might be restarting, retry
    }
    setTimeout(checkForChanges, pollInterval);
  }

  if (document.readyState === 'complete') {
    checkForChanges();
  } else {
    window.addEventListener('load', checkForChanges);
  }
})();
</script>`

type liveReloadStatus struct {
	Seq uint64 `json:"seq"`
	Log uint64 `json:"log"`
}

func (s *Server) handleLiveReload(w http.ResponseWriter, r *http.Request) {
	status := liveReloadStatus{Seq: s.ChangeSeq()}
	if s.devLog != nil {
		status.Log = s.devLog.GetSeq()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	json.NewEncoder(w).Encode(status)
}

// injectLiveReload wraps a handler to inject the live reload script into HTML responses
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lrw := &liveReloadResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)
		lrw.flush()
	})
}

// liveReloadResponseWriter buffers HTML responses to inject the script
type liveReloadResponseWriter struct {
	http.ResponseWriter
	buffer      []byte
	statusCode  int
	wroteHeader bool
	isHTML      bool
	checked     bool
}

func (w *liveReloadResponseWriter) WriteHeader(code int) {
	// Deferred until the content type is known
	w.statusCode = code
}

func (w *liveReloadResponseWriter) Write(b []byte) (int, error) {
	if !w.checked {
		w.checked = true
		w.isHTML = strings.Contains(w.Header().Get("Content-Type"), "text/html")
	}

	if w.isHTML {
		w.buffer = append(w.buffer, b...)
		return len(b), nil
	}

	w.writeHeader()
	return w.ResponseWriter.Write(b)
}

func (w *liveReloadResponseWriter) writeHeader() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.statusCode != 0 {
		w.ResponseWriter.WriteHeader(w.statusCode)
	}
}

func (w *liveReloadResponseWriter) flush() {
	if !w.isHTML || len(w.buffer) == 0 {
		// Header-only responses still need their status
		w.writeHeader()
		return
	}

	content := injectBefore(w.buffer, []byte(liveReloadScript))

	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.writeHeader()
	w.ResponseWriter.Write(content)
}

// injectBefore inserts script before </body>, else before </html>, else at
// the end of content.
func injectBefore(content, script []byte) []byte {
	for _, re := range []*regexp.Regexp{bodyTagRe, htmlTagRe} {
		if loc := re.FindIndex(content); loc != nil {
			out := make([]byte, 0, len(content)+len(script))
			out = append(out, content[:loc[0]]...)
			out = append(out, script...)
			return append(out, content[loc[0]:]...)
		}
	}
	return append(content, script...)
}
