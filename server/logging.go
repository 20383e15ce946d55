package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// errorCodeHeader carries the error code of a rejected API call so the
// request log can show why an edit was refused.
const errorCodeHeader = "X-Jsxplay-Error"

// requestLogger is middleware that logs HTTP requests
type requestLogger struct {
	handler http.Handler
	output  io.Writer
	format  string // "json" or "text"
}

// RequestLogEntry represents a single request log entry
type RequestLogEntry struct {
	Timestamp  string `json:"timestamp"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Bytes      int    `json:"bytes"`
	Duration   string `json:"duration"`
	DurationMs int64  `json:"duration_ms"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// responseCapture wraps http.ResponseWriter to capture status and size
type responseCapture struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.status = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.status == 0 {
		rc.status = http.StatusOK
	}
	n, err := rc.ResponseWriter.Write(b)
	rc.bytes += n
	return n, err
}

func newRequestLogger(handler http.Handler, output io.Writer, format string) *requestLogger {
	if format == "" {
		format = "text"
	}
	return &requestLogger{
		handler: handler,
		output:  output,
		format:  format,
	}
}

// quietPaths are polled by the browser every second and not logged.
var quietPaths = map[string]bool{
	"/__livereload": true,
	"/api/warning":  true,
}

func (rl *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if quietPaths[r.URL.Path] {
		rl.handler.ServeHTTP(w, r)
		return
	}

	start := time.Now()
	rc := &responseCapture{ResponseWriter: w}
	rl.handler.ServeHTTP(rc, r)
	duration := time.Since(start)

	entry := RequestLogEntry{
		Timestamp:  start.Format(time.RFC3339),
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     rc.status,
		Bytes:      rc.bytes,
		Duration:   duration.String(),
		DurationMs: duration.Milliseconds(),
		ErrorCode:  rc.Header().Get(errorCodeHeader),
	}

	if rl.format == "json" {
		rl.writeJSON(entry)
	} else {
		rl.writeText(entry)
	}
}

func (rl *requestLogger) writeJSON(entry RequestLogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintf(rl.output, "%s\n", data)
}

func (rl *requestLogger) writeText(entry RequestLogEntry) {
	line := fmt.Sprintf("%s %s %s %d %dB %s",
		entry.Timestamp, entry.Method, entry.Path, entry.Status, entry.Bytes, entry.Duration)
	if entry.ErrorCode != "" {
		line += " " + entry.ErrorCode
	}
	fmt.Fprintln(rl.output, line)
}

// OpenLogOutput resolves a logging.output setting to a writer. The returned
// close function is a no-op for stdout and stderr.
func OpenLogOutput(output string, stdout, stderr io.Writer) (io.Writer, func() error, error) {
	nop := func() error { return nil }
	switch output {
	case "", "stderr":
		return stderr, nop, nil
	case "stdout":
		return stdout, nop, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log output: %w", err)
	}
	return f, f.Close, nil
}
