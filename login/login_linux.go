//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// desktopPath follows the XDG autostart spec.
func desktopPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", "pasta.desktop")
}

func desktopEntry(exe, home string) string {
	execLine := quoteExec(exe) + " run"
	if home != "" {
		execLine = "env PASTA_HOME=" + quoteExec(home) + " " + execLine
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Pasta
Comment=Clipboard history and keystroke paste
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
X-Pasta-Label=%s
`, execLine, Label)
}

// quoteExec quotes an argument for a desktop entry Exec key.
func quoteExec(arg string) string {
	if !strings.ContainsAny(arg, " \t\"'\\$`") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", "$", `\$`)
	return `"` + r.Replace(arg) + `"`
}

func Enabled() bool {
	_, err := os.Stat(desktopPath())
	return err == nil
}

func Enable() error {
	exe, home, err := command()
	if err != nil {
		return err
	}
	path := desktopPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(desktopEntry(exe, home)), 0644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func Disable() error {
	if err := os.Remove(desktopPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}
