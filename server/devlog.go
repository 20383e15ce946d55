package server

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sambeau/jsxplay/pkg/jsx/jsx"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// DevLog persists preview diagnostics and handler output in dev mode.
type DevLog struct {
	mu          sync.RWMutex
	db          *sql.DB
	path        string
	maxSize     int64  // Maximum database size in bytes (default 10MB)
	truncatePct int    // Percentage to delete when truncating (default 25)
	seq         uint64 // Incremented on each log write
}

// LogEntry is one logged line.
type LogEntry struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DevLogConfig holds configuration for the dev log.
type DevLogConfig struct {
	Path        string // Database file path
	MaxSize     int64  // Max size in bytes (default 10MB)
	TruncatePct int    // Percentage to delete when truncating (default 25%)
}

// DefaultDevLogConfig returns the default configuration.
func DefaultDevLogConfig() DevLogConfig {
	return DevLogConfig{
		MaxSize:     10 * 1024 * 1024,
		TruncatePct: 25,
	}
}

// NewDevLog opens the dev log database, creating it if needed.
// If cfg.Path is empty, ".jsxplay-dev.db" in baseDir is used.
func NewDevLog(baseDir string, cfg DevLogConfig) (*DevLog, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(baseDir, ".jsxplay-dev.db")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening dev log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to dev log database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	dl := &DevLog{
		db:          db,
		path:        path,
		maxSize:     cfg.MaxSize,
		truncatePct: cfg.TruncatePct,
	}
	if dl.maxSize == 0 {
		dl.maxSize = 10 * 1024 * 1024
	}
	if dl.truncatePct == 0 {
		dl.truncatePct = 25
	}

	if err := dl.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating dev log schema: %w", err)
	}
	return dl, nil
}

func (dl *DevLog) createSchema() error {
	_, err := dl.db.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL DEFAULT 'info',
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_logs_source ON logs(source);
	`)
	return err
}

// Write stores one entry.
func (dl *DevLog) Write(source, level, message string) error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if err := dl.maybeAutoTruncate(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] dev log truncation failed: %v\n", err)
	}

	_, err := dl.db.Exec(
		`INSERT INTO logs (source, level, message, timestamp) VALUES (?, ?, ?, ?)`,
		source, level, message, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err == nil {
		dl.seq++
	}
	return err
}

// Logger returns a jsx.Logger that writes to the dev log under source.
// Lines starting with "warning:" are stored at warn level.
func (dl *DevLog) Logger(source string) jsx.Logger {
	return &devLogLogger{dl: dl, source: source}
}

type devLogLogger struct {
	dl      *DevLog
	source  string
	mu      sync.Mutex
	pending strings.Builder
}

func (l *devLogLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.WriteString(fmt.Sprint(values...))
}

func (l *devLogLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintln(values...)
	if l.pending.Len() > 0 {
		msg = l.pending.String() + msg
		l.pending.Reset()
	}
	msg = strings.TrimRight(msg, "\n")

	level := "info"
	if strings.HasPrefix(msg, "warning:") {
		level = "warn"
		msg = strings.TrimSpace(strings.TrimPrefix(msg, "warning:"))
	}
	l.dl.Write(l.source, level, msg)
}

// GetSeq returns the current sequence number for polling.
func (dl *DevLog) GetSeq() uint64 {
	dl.mu.RLock()
	defer dl.mu.RUnlock()
	return dl.seq
}

// GetLogs returns the newest entries first, optionally filtered by source.
func (dl *DevLog) GetLogs(source string, limit int) ([]LogEntry, error) {
	dl.mu.RLock()
	defer dl.mu.RUnlock()

	if limit <= 0 {
		limit = 1000
	}

	var rows *sql.Rows
	var err error
	if source == "" {
		rows, err = dl.db.Query(`
			SELECT id, source, level, message, timestamp
			FROM logs
			ORDER BY id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = dl.db.Query(`
			SELECT id, source, level, message, timestamp
			FROM logs
			WHERE source = ?
			ORDER BY id DESC
			LIMIT ?
		`, source, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Source, &e.Level, &e.Message, &ts); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearLogs removes entries, optionally filtered by source.
func (dl *DevLog) ClearLogs(source string) error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	var err error
	if source == "" {
		_, err = dl.db.Exec("DELETE FROM logs")
	} else {
		_, err = dl.db.Exec("DELETE FROM logs WHERE source = ?", source)
	}
	return err
}

// Count returns the number of entries, optionally filtered by source.
func (dl *DevLog) Count(source string) (int, error) {
	dl.mu.RLock()
	defer dl.mu.RUnlock()

	var count int
	var err error
	if source == "" {
		err = dl.db.QueryRow("SELECT COUNT(*) FROM logs").Scan(&count)
	} else {
		err = dl.db.QueryRow("SELECT COUNT(*) FROM logs WHERE source = ?", source).Scan(&count)
	}
	return count, err
}

// maybeAutoTruncate drops the oldest entries once the file exceeds maxSize.
// Must be called with lock held.
func (dl *DevLog) maybeAutoTruncate() error {
	info, err := os.Stat(dl.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < dl.maxSize {
		return nil
	}

	var total int
	if err := dl.db.QueryRow("SELECT COUNT(*) FROM logs").Scan(&total); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	deleteCount := (total * dl.truncatePct) / 100
	if deleteCount == 0 {
		deleteCount = 1
	}

	_, err = dl.db.Exec(`
		DELETE FROM logs WHERE id IN (
			SELECT id FROM logs ORDER BY id ASC LIMIT ?
		)
	`, deleteCount)
	if err != nil {
		return fmt.Errorf("truncating logs: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (dl *DevLog) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.db.Close()
}

// Path returns the path to the database file.
func (dl *DevLog) Path() string {
	return dl.path
}
