// Package store persists snapshots of editor source text.
//
// The source string is the only durable state of a session; a snapshot is
// that string plus a label and a timestamp.
package store

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	// Database drivers registered with database/sql
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// timeLayout sorts lexically in time order on every backend.
const timeLayout = "2006-01-02 15:04:05.000000"

// Config selects the database.
type Config struct {
	Driver string // sqlite (default), postgres or mysql
	DSN    string // file path for sqlite, connection string otherwise
}

// Snapshot is a saved copy of the source text.
type Snapshot struct {
	ID      int64     `json:"id"`
	Label   string    `json:"label"`
	Code    string    `json:"code"`
	Created time.Time `json:"created"`
}

// Store reads and writes snapshots.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the configured database and creates the schema.
func Open(cfg Config) (*Store, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" || driver == "sqlite3" {
		driver = SQLite
	}

	dsn := cfg.DSN
	switch driver {
	case SQLite:
		if dsn == "" {
			dsn = "jsxplay.db"
		}
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("creating store directory: %w", err)
			}
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case Postgres, MySQL:
		if dsn == "" {
			return nil, fmt.Errorf("store driver %s needs a dsn", driver)
		}
	default:
		return nil, perrors.New("DB-0001", map[string]any{"Driver": cfg.Driver})
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if driver == SQLite {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating store schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	var idCol, codeCol string
	switch s.driver {
	case Postgres:
		idCol, codeCol = "BIGSERIAL PRIMARY KEY", "TEXT"
	case MySQL:
		idCol, codeCol = "BIGINT AUTO_INCREMENT PRIMARY KEY", "LONGTEXT"
	default:
		idCol, codeCol = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id ` + idCol + `,
			label VARCHAR(255) NOT NULL DEFAULT '',
			code ` + codeCol + ` NOT NULL,
			created VARCHAR(32) NOT NULL
		)`)
	return err
}

// rebind rewrites ? placeholders for drivers that number them.
func (s *Store) rebind(query string) string {
	if s.driver != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// Save stores code under label.
func (s *Store) Save(label, code string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Label: label, Code: code, Created: s.now().UTC().Truncate(time.Microsecond)}
	created := snap.Created.Format(timeLayout)
	query := "INSERT INTO snapshots (label, code, created) VALUES (?, ?, ?)"

	if s.driver == Postgres {
		err := s.db.QueryRow(s.rebind(query)+" RETURNING id", label, code, created).Scan(&snap.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
		}
		return snap, nil
	}

	res, err := s.db.Exec(query, label, code, created)
	if err != nil {
		return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	if snap.ID, err = res.LastInsertId(); err != nil {
		return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return snap, nil
}

// List returns snapshots created at or after since, newest first. A zero
// since lists everything; limit <= 0 means 100.
func (s *Store) List(since time.Time, limit int) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(s.rebind(`
		SELECT id, label, code, created FROM snapshots
		WHERE created >= ?
		ORDER BY id DESC
		LIMIT ?`), since.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scan(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Get returns the snapshot with id.
func (s *Store) Get(id int64) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(s.rebind("SELECT id, label, code, created FROM snapshots WHERE id = ?"), id)
	snap, err := scan(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, perrors.New("DB-0002", map[string]any{"ID": id})
	}
	return snap, err
}

// Latest returns the most recent snapshot. ok is false when there is none.
func (s *Store) Latest() (snap Snapshot, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT id, label, code, created FROM snapshots ORDER BY id DESC LIMIT 1")
	snap, err = scan(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Snapshot, error) {
	var snap Snapshot
	var created string
	if err := row.Scan(&snap.ID, &snap.Label, &snap.Code, &created); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot time %q: %w", created, err)
	}
	snap.Created = t.UTC()
	return snap, nil
}
