package history

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyCreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.key")
	k1, err := LoadKey(path)
	require.NoError(t, err)
	require.Len(t, k1, KeySize)

	k2, err := LoadKey(path)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestLoadKeyRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.key")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))
	_, err := LoadKey(path)
	assert.ErrorIs(t, err, ErrBadKey)
}

func openKeyed(t *testing.T, path string, key []byte) *Store {
	t.Helper()
	s, err := Open(path, WithKey(key))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rawContent(t *testing.T, path string, id int64) string {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var c string
	require.NoError(t, db.QueryRow(`SELECT content FROM entries WHERE id = ?`, id).Scan(&c))
	return c
}

func TestSensitiveContentEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	key := bytes.Repeat([]byte{7}, KeySize)
	s := openKeyed(t, path, key)

	secret := "password: hunter2"
	id, err := s.SaveEntry(ctx, Entry{Content: secret, Fingerprint: "plain-sha", Sensitive: true})
	require.NoError(t, err)
	plainID, err := s.SaveEntry(ctx, Entry{Content: "just text", Fingerprint: "fp-text"})
	require.NoError(t, err)

	raw := rawContent(t, path, id)
	assert.NotContains(t, raw, "hunter2")
	assert.Equal(t, "just text", rawContent(t, path, plainID))

	e, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, secret, e.Content)
	assert.True(t, e.Sensitive)
	assert.NotEqual(t, "plain-sha", e.Fingerprint)

	again, err := s.SaveEntry(ctx, Entry{Content: secret, Fingerprint: "plain-sha", Sensitive: true})
	require.NoError(t, err)
	assert.Equal(t, id, again, "same secret should dedupe")

	found, err := s.Search(ctx, "hunter2", 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSealedEntryNeedsKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	s := openKeyed(t, path, bytes.Repeat([]byte{1}, KeySize))
	id, err := s.SaveEntry(ctx, Entry{Content: "token=abc", Fingerprint: "fp", Sensitive: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	bare, err := Open(path)
	require.NoError(t, err)
	defer bare.Close()
	_, err = bare.Get(ctx, id)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := Open(path, WithKey(bytes.Repeat([]byte{2}, KeySize)))
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Get(ctx, id)
	assert.ErrorIs(t, err, ErrBadKey)
}

func TestOpenMigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		content_type TEXT NOT NULL,
		fingerprint TEXT NOT NULL UNIQUE,
		sensitive INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	INSERT INTO entries (content, content_type, fingerprint, created_at) VALUES ('old', 'text', 'fp-old', 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	e, err := s.MostRecent(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "old", e.Content)
}
