package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// PasteMetrics describes one finished paste for the diagnostics log.
type PasteMetrics struct {
	Mode      string
	Requested string
	Chars     int
	Chunks    int
	Failure   string
	Duration  time.Duration
}

// ResolveDir picks the log directory: flag, then PASTA_LOG_PATH, then
// the platform default supplied by the caller.
func ResolveDir(flagPath, defaultDir string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv("PASTA_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}
	if defaultDir == "" {
		return "", fmt.Errorf("no default log directory")
	}
	return defaultDir, nil
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	f, err := os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	diagFile = f
	setWriterLocked(f)
	return nil
}

// InitWriter routes diagnostics to w instead of a file. Used by tests and
// the foreground CLI commands.
func InitWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	pid = os.Getpid()
	setWriterLocked(w)
}

func setWriterLocked(w io.Writer) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()
	logReady = true
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// PasteStart records the mode a paste resolved to and the mode asked for.
func PasteStart(mode, requested string, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("mode", mode).
		Str("requested", requested).
		Int("chars", chars).
		Msg("paste_start")
}

func PasteEnd(m PasteMetrics) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if m.Failure != "" {
		ev = diagLog.Warn().Str("failure", m.Failure)
	}
	ev.Str("mode", m.Mode).
		Str("requested", m.Requested).
		Int("chars", m.Chars).
		Int("chunks", m.Chunks).
		Float64("total_ms", float64(m.Duration.Microseconds())/1000).
		Msg("paste_end")
}

// ClipboardChange never records the content itself, only its shape.
func ClipboardChange(kind string, size int, fingerprint string) {
	if !logReady {
		return
	}
	if len(fingerprint) > 12 {
		fingerprint = fingerprint[:12]
	}
	diagLog.Info().
		Str("kind", kind).
		Int("size", size).
		Str("fp", fingerprint).
		Msg("clipboard_change")
}

func MonitorFailure(failures int, err error) {
	if !logReady {
		return
	}
	diagLog.Error().
		Int("consecutive", failures).
		Err(err).
		Msg("monitor_read_failure")
}

func SessionStart(mode string, monitoring bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("mode", mode).
		Bool("monitoring", monitoring).
		Msg("session_start")
}

func SessionEnd(pastes int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("pastes", pastes).
		Msg("session_end")
}
