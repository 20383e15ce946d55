package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sambeau/jsxplay/config"
	"github.com/sambeau/jsxplay/editor"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
	"github.com/sambeau/jsxplay/store"
)

// Server is a jsxplay instance: one editing session served over HTTP.
type Server struct {
	config     *config.Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	logOut     io.Writer
	closeLog   func() error
	mux        *http.ServeMux
	server     *http.Server
	session    *editor.Session
	store      *store.Store
	devLog     *DevLog
	watcher    *Watcher

	mu        sync.Mutex
	changeSeq uint64 // Incremented on every source change for live reload
}

// New creates a server for cfg. The session starts from the source file
// when one is configured and exists.
func New(cfg *config.Config, configPath string, stdout, stderr io.Writer) (*Server, error) {
	s := &Server{
		config:     cfg,
		configPath: configPath,
		stdout:     stdout,
		stderr:     stderr,
		mux:        http.NewServeMux(),
	}

	start, err := s.readSource()
	if err != nil {
		return nil, err
	}

	s.logOut, s.closeLog, err = OpenLogOutput(cfg.Logging.Output, stdout, stderr)
	if err != nil {
		return nil, err
	}

	if cfg.Server.Dev {
		maxSize, err := config.ParseSize(cfg.Dev.LogMaxSize)
		if err != nil {
			return nil, fmt.Errorf("dev log: %w", err)
		}
		s.devLog, err = NewDevLog(cfg.BaseDir, DevLogConfig{
			Path:        cfg.Dev.LogDatabase,
			MaxSize:     maxSize,
			TruncatePct: cfg.Dev.LogTruncatePct,
		})
		if err != nil {
			s.closeLog()
			return nil, err
		}
	}

	if cfg.Store.Driver != "" {
		s.store, err = store.Open(store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
		if err != nil {
			s.closeDevLog()
			s.closeLog()
			return nil, fmt.Errorf("opening snapshot store: %w", err)
		}
	}

	opts := editor.Options{
		Initial:        cfg.Source.Initial,
		Start:          start,
		Strict:         cfg.Editor.Strict,
		BareAttributes: cfg.Editor.BareAttributes,
		WarningTTL:     cfg.Editor.WarningTTL,
		OnChange:       s.sourceChanged,
	}
	if cfg.Editor.StyleProp == "sx" {
		opts.Color.NewProp = mutate.NewSxForComponents
	}
	if s.devLog != nil {
		opts.Logger = s.devLog.Logger("preview")
	}
	s.session = editor.New(opts)

	s.setupRoutes()
	return s, nil
}

// Session returns the editing session the server drives.
func (s *Server) Session() *editor.Session {
	return s.session
}

// readSource returns the contents of the configured source file, or "" when
// no file is configured or it does not exist yet.
func (s *Server) readSource() (string, error) {
	if s.config.Source.File == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.config.Source.File)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}

// sourceChanged persists code and bumps the live reload sequence.
func (s *Server) sourceChanged(code string) {
	s.bumpSeq()
	if s.config.Source.File == "" {
		return
	}
	if err := os.WriteFile(s.config.Source.File, []byte(code), 0644); err != nil {
		s.logError("failed to write source %s: %v", s.config.Source.File, err)
	}
}

func (s *Server) bumpSeq() {
	s.mu.Lock()
	s.changeSeq++
	s.mu.Unlock()
}

// ChangeSeq returns the live reload sequence number.
func (s *Server) ChangeSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeSeq
}

// Handler returns the complete middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux

	if s.config.Server.Dev {
		handler = injectLiveReload(handler)
	}

	handler = newCompressionHandler(handler, s.config.Compression)

	if s.config.Logging.Level != "error" {
		handler = newRequestLogger(handler, s.logOut, s.config.Logging.Format)
	}
	return handler
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.listenAddr()
	defer s.Close()

	if s.config.Source.File != "" && (s.config.Source.Watch || s.config.Server.Dev) {
		watcher, err := NewWatcher(s, s.config.Source.File, s.stdout, s.stderr)
		if err != nil {
			s.logError("failed to create watcher: %v", err)
		} else {
			s.watcher = watcher
			if err := s.watcher.Start(ctx); err != nil {
				s.logError("failed to start watcher: %v", err)
			}
			defer s.watcher.Close()
		}
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if s.config.Server.Dev {
			fmt.Fprintf(s.stdout, "Starting jsxplay in development mode on http://%s\n", addr)
		} else {
			fmt.Fprintf(s.stdout, "Starting jsxplay on http://%s\n", addr)
		}
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintf(s.stdout, "\nShutting down gracefully...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Close releases the session and closes the databases.
func (s *Server) Close() error {
	s.session.Close()
	s.closeDevLog()
	s.closeLog()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) closeDevLog() {
	if s.devLog != nil {
		s.devLog.Close()
	}
}

func (s *Server) listenAddr() string {
	host := s.config.Server.Host
	port := s.config.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func (s *Server) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(s.stdout, "[INFO] "+format+"\n", args...)
}

func (s *Server) logError(format string, args ...interface{}) {
	fmt.Fprintf(s.stderr, "[ERROR] "+format+"\n", args...)
}
