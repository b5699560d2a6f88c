//go:build darwin

package config

import "path/filepath"

func platformDirs(home string) Dirs {
	return Dirs{
		Config: filepath.Join(home, "Library", "Preferences", "Pasta"),
		Data:   filepath.Join(home, "Library", "Application Support", "Pasta"),
		Log:    filepath.Join(home, "Library", "Logs", "pasta"),
	}
}
