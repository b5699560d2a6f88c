// Package history persists captured clipboard entries in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("entry not found")

// Content types, from the shape of the text.
const (
	TypeURL       = "url"
	TypeMultiline = "multiline"
	TypeLargeText = "large_text"
	TypeText      = "text"
)

// largeText is the length above which single-line text is large_text.
const largeText = 500

type Entry struct {
	ID          int64
	Content     string
	ContentType string
	Fingerprint string
	Sensitive   bool
	CreatedAt   time.Time
}

// Classify labels content the way the history list groups it.
func Classify(content string) string {
	switch {
	case strings.HasPrefix(content, "http://"), strings.HasPrefix(content, "https://"):
		return TypeURL
	case strings.ContainsAny(content, "\t\n"):
		return TypeMultiline
	case len([]rune(content)) > largeText:
		return TypeLargeText
	}
	return TypeText
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    content       TEXT NOT NULL,
    content_type  TEXT NOT NULL,
    fingerprint   TEXT NOT NULL UNIQUE,
    sensitive     INTEGER NOT NULL DEFAULT 0,
    sealed        INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

type Store struct {
	db   *sql.DB
	now  func() time.Time
	seal *sealer // nil stores sensitive content as plain text
}

type Option func(*Store) error

// WithKey encrypts the content of sensitive entries under key. Entries
// saved this way can only be read back by a store opened with the same key
// and are not matched by Search.
func WithKey(key []byte) Option {
	return func(s *Store) error {
		sl, err := newSealer(key)
		if err != nil {
			return err
		}
		s.seal = sl
		return nil
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// migrate adds columns that databases from older versions lack.
func migrate(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'sealed'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE entries ADD COLUMN sealed INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveEntry records e. Content already in the store moves to the top
// instead of being stored twice. Missing fields are derived from the
// content. With a key loaded, sensitive content is encrypted and its
// fingerprint replaced by a keyed one. The entry's id is returned.
func (s *Store) SaveEntry(ctx context.Context, e Entry) (int64, error) {
	if e.Content == "" {
		return 0, errors.New("save entry: empty content")
	}
	if e.Fingerprint == "" {
		return 0, errors.New("save entry: missing fingerprint")
	}
	if e.ContentType == "" {
		e.ContentType = Classify(e.Content)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	content, sealed := e.Content, false
	if e.Sensitive && s.seal != nil {
		var err error
		if content, err = s.seal.seal(e.Content); err != nil {
			return 0, fmt.Errorf("save entry: encrypt: %w", err)
		}
		e.Fingerprint = s.seal.fingerprint(e.Content)
		sealed = true
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO entries (content, content_type, fingerprint, sensitive, sealed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			created_at = excluded.created_at,
			sensitive = excluded.sensitive
		RETURNING id`,
		content, e.ContentType, e.Fingerprint, e.Sensitive, sealed, e.CreatedAt.UnixNano(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}
	return id, nil
}

const selectEntry = `SELECT id, content, content_type, fingerprint, sensitive, sealed, created_at FROM entries`

// MostRecent returns the newest entry, or nil when the store is empty.
func (s *Store) MostRecent(ctx context.Context) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` ORDER BY created_at DESC, id DESC LIMIT 1`)
	e, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent entry: %w", err)
	}
	return e, nil
}

// Get returns the entry with id, or ErrNotFound wrapped when there is none.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	e, err := s.scan(s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, selectEntry+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// Search returns entries whose content contains q, ignoring case.
// Encrypted entries never match.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, selectEntry+` WHERE instr(lower(content), lower(?)) > 0
		ORDER BY created_at DESC, id DESC LIMIT ?`, q, limit)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return nil
}

// Clear removes every entry and reports how many there were.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Prune keeps at most maxEntries entries and drops those older than
// maxAge. A zero limit disables that rule.
func (s *Store) Prune(ctx context.Context, maxEntries int, maxAge time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var removed int64
	if maxAge > 0 {
		cutoff := s.now().Add(-maxAge).UnixNano()
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE created_at < ?`, cutoff)
		if err != nil {
			return 0, fmt.Errorf("prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if maxEntries > 0 {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM entries WHERE id NOT IN (
				SELECT id FROM entries ORDER BY created_at DESC, id DESC LIMIT ?
			)`, maxEntries)
		if err != nil {
			return 0, fmt.Errorf("prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return removed, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(r scanner) (*Entry, error) {
	var e Entry
	var sealed bool
	var created int64
	if err := r.Scan(&e.ID, &e.Content, &e.ContentType, &e.Fingerprint, &e.Sensitive, &sealed, &created); err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(0, created)
	if sealed {
		if s.seal == nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, ErrLocked)
		}
		plain, err := s.seal.open(e.Content)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		e.Content = plain
	}
	return &e, nil
}
