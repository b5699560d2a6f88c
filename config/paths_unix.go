//go:build !darwin && !windows

package config

import (
	"os"
	"path/filepath"
)

func platformDirs(home string) Dirs {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	xdgData := os.Getenv("XDG_DATA_HOME")
	if xdgData == "" {
		xdgData = filepath.Join(home, ".local", "share")
	}
	return Dirs{
		Config: filepath.Join(xdgConfig, "pasta"),
		Data:   filepath.Join(xdgData, "pasta"),
		Log:    filepath.Join(xdgConfig, "pasta", "logs"),
	}
}
