// Package journal records applied IME commits in SQLite for diagnostics.
//
// The journal is write-mostly: the GUI appends one row per commit and the
// imectl tool reads them back. It never feeds composition state back into
// the registry.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"imecompose/internal/ime"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    started_ns  INTEGER NOT NULL,
    hostname    TEXT
);

CREATE TABLE IF NOT EXISTS commits (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id      TEXT NOT NULL REFERENCES sessions(id),
    timestamp_ns    INTEGER NOT NULL,
    identity        TEXT NOT NULL,
    value           TEXT NOT NULL,
    text            TEXT NOT NULL,
    cursor          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_timestamp ON commits(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_commits_session ON commits(session_id, id);
`

// Entry is one journaled commit.
type Entry struct {
	ID        int64
	SessionID string
	Time      time.Time
	Identity  string
	Value     string
	Text      string
	Cursor    int
}

var (
	// ErrClosed is returned by Record after Close.
	ErrClosed = errors.New("journal: closed")

	// ErrReadOnly is returned by Record on a journal opened with
	// OpenReadOnly.
	ErrReadOnly = errors.New("journal: read-only")
)

// Journal is a SQLite commit journal. It is safe for concurrent use.
type Journal struct {
	db       *sql.DB
	session  string
	readOnly bool

	mu     sync.Mutex
	closed bool
}

// Open opens or creates the journal at path and starts a new session.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	j := &Journal{db: db, session: uuid.NewString()}
	host, _ := os.Hostname()
	if _, err := db.Exec(
		`INSERT INTO sessions (id, started_ns, hostname) VALUES (?, ?, ?)`,
		j.session, time.Now().UnixNano(), host,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}
	return j, nil
}

// OpenReadOnly opens an existing journal without starting a session.
// Record fails on the returned journal.
func OpenReadOnly(path string) (*Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Query parameters such as mode are only honored in URI filenames.
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db, readOnly: true}, nil
}

// Session returns the id of the session this journal writes to. It is
// empty for read-only journals.
func (j *Journal) Session() string { return j.session }

// Record appends a commit. It implements ime.CommitObserver.
func (j *Journal) Record(rec ime.CommitRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if j.readOnly {
		return ErrReadOnly
	}

	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.Exec(`
		INSERT INTO commits (session_id, timestamp_ns, identity, value, text, cursor)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.session, ts.UnixNano(), rec.Identity, rec.Value, rec.Text, rec.Cursor,
	)
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

// Recent returns up to limit commits, newest first. A limit of zero or
// less returns every commit.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT id, session_id, timestamp_ns, identity, value, text, cursor
		FROM commits ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return j.query(query, args...)
}

// SessionEntries returns the commits of one session in order.
func (j *Journal) SessionEntries(session string) ([]Entry, error) {
	return j.query(`
		SELECT id, session_id, timestamp_ns, identity, value, text, cursor
		FROM commits WHERE session_id = ? ORDER BY id`, session)
}

func (j *Journal) query(query string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ns int64
		if err := rows.Scan(&e.ID, &e.SessionID, &ns, &e.Identity, &e.Value, &e.Text, &e.Cursor); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		e.Time = time.Unix(0, ns)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of journaled commits.
func (j *Journal) Count() (int64, error) {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}

// Sessions returns the number of sessions recorded.
func (j *Journal) Sessions() (int64, error) {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

var _ ime.CommitObserver = (*Journal)(nil)
