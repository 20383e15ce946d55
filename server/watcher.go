package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the session when the source file is edited outside the
// playground.
type Watcher struct {
	watcher    *fsnotify.Watcher
	server     *Server
	sourcePath string
	stdout     io.Writer
	stderr     io.Writer

	// Track last change time to debounce rapid changes
	mu         sync.Mutex
	lastChange time.Time
	reloads    uint64
}

// NewWatcher creates a watcher for sourcePath.
func NewWatcher(s *Server, sourcePath string, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:    fsWatcher,
		server:     s,
		sourcePath: abs,
		stdout:     stdout,
		stderr:     stderr,
	}, nil
}

// Start begins watching. Editors often replace files rather than write
// them in place, so the containing directory is watched.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.sourcePath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logInfo("watching source: %s", w.sourcePath)

	if w.server.configPath != "" {
		configDir := filepath.Dir(w.server.configPath)
		if configDir != dir {
			if err := w.watcher.Add(configDir); err != nil {
				w.logError("failed to watch config dir %s: %v", configDir, err)
			}
		}
	}

	go w.eventLoop(ctx)
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	// Wait for rapid changes to settle
	const debounce = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			if time.Since(w.lastChange) < debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = time.Now()
			w.mu.Unlock()

			w.handleFileChange(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleFileChange(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	if w.server.configPath != "" && filepath.Base(abs) == filepath.Base(w.server.configPath) {
		w.logInfo("config changed: %s (restart the server for config changes to take effect)", abs)
		return
	}
	if abs != w.sourcePath {
		return
	}

	if w.Reload() {
		w.logInfo("source changed: %s", abs)
	}
}

// Reload reads the source file into the session. It reports whether the
// session text changed; writes made by the session itself are no-ops.
func (w *Watcher) Reload() bool {
	data, err := os.ReadFile(w.sourcePath)
	if err != nil {
		w.logError("failed to read source: %v", err)
		return false
	}
	code := string(data)
	if code == w.server.session.Code() {
		return false
	}
	w.server.session.SetCode(code)

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	return true
}

// Reloads returns how many external edits have been applied.
func (w *Watcher) Reloads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
