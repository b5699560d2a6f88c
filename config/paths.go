package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves where pasta keeps its files. Core packages receive a
// Paths instead of branching on the operating system themselves.
type Paths interface {
	ConfigDir() string
	DataDir() string
	LogDir() string
}

// Dirs is a fixed set of directories.
type Dirs struct {
	Config string
	Data   string
	Log    string
}

func (d Dirs) ConfigDir() string { return d.Config }
func (d Dirs) DataDir() string   { return d.Data }
func (d Dirs) LogDir() string    { return d.Log }

// RootedAt places every directory under root. Handy for tests and
// portable installs.
func RootedAt(root string) Dirs {
	return Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
		Log:    filepath.Join(root, "logs"),
	}
}

// DefaultPaths returns the platform directories for the current user.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return platformDirs(home), nil
}

func HistoryDB(p Paths) string {
	return filepath.Join(p.DataDir(), "history.db")
}

// KeyFile holds the key that encrypts sensitive history entries.
func KeyFile(p Paths) string {
	return filepath.Join(p.DataDir(), "history.key")
}

func SnippetsFile(p Paths) string {
	return filepath.Join(p.DataDir(), "snippets.json")
}

func ConfigFile(p Paths) string {
	return filepath.Join(p.ConfigDir(), FileName+".toml")
}

func ensureDir(d string) error {
	if err := os.MkdirAll(d, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d, err)
	}
	return nil
}

// EnsureDirs creates every directory in p.
func EnsureDirs(p Paths) error {
	for _, d := range []string{p.ConfigDir(), p.DataDir(), p.LogDir()} {
		if err := ensureDir(d); err != nil {
			return err
		}
	}
	return nil
}
