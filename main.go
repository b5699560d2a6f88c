// pasta: clipboard history and keystroke paste for fields that block Ctrl+V.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pasta/log"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// errFailed marks a command that already reported its failure and only
// needs a non-zero exit.
var errFailed = errors.New("failed")

func run() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		log.Close()
		os.Exit(1)
	}
	log.Close()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "pasta",
		Short: "Clipboard history and keystroke paste",
		Long: `pasta keeps a history of what you copy and pastes text into fields that
block Ctrl+V by typing it as keystrokes.

Run "pasta run" to watch the clipboard and enable the hotkeys:
  ctrl+shift+v   paste the newest history entry
  esc esc        stop a paste in progress

Config file search order (first found wins):
  path supplied via --config
  <config dir>/pasta.toml

Settings can also be set via PASTA_<SECTION>_<KEY> env vars,
for example PASTA_PASTE_MODE=typing.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to config file (overrides auto-discovery)")
	pf.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.String("home", "", "keep config, data and logs under this directory")

	root.AddCommand(
		newRunCmd(a),
		newPasteCmd(a),
		newLastCmd(a),
		newHistoryCmd(a),
		newSnippetCmd(a),
		newDoctorCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no config or log directory
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pasta %s\n", version)
		},
	}
}

// initCrashLog sends fatal runtime errors to crash_log.txt next to the
// diagnostics log.
func initCrashLog(dir string) {
	crashPath := filepath.Join(dir, "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}
