//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func platformDirs(home string) Dirs {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		localAppData = filepath.Join(home, "AppData", "Local")
	}
	return Dirs{
		Config: filepath.Join(appData, "Pasta"),
		Data:   filepath.Join(appData, "Pasta"),
		Log:    filepath.Join(localAppData, "pasta", "logs"),
	}
}
