// Package config loads and validates pasta settings.
//
// Precedence (lowest to highest): defaults, pasta.toml, PASTA_* env vars,
// command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pasta/hotkey"
)

const FileName = "pasta"

var ErrInvalid = errors.New("invalid settings")

type Settings struct {
	Paste   PasteSettings   `mapstructure:"paste"`
	Monitor MonitorSettings `mapstructure:"monitor"`
	History HistorySettings `mapstructure:"history"`
	Privacy PrivacySettings `mapstructure:"privacy"`
	Hotkeys HotkeySettings  `mapstructure:"hotkeys"`
}

type PasteSettings struct {
	Mode                   string        `mapstructure:"mode"`
	ChunkSize              int           `mapstructure:"chunk_size"`
	CharInterval           time.Duration `mapstructure:"char_interval"`
	ClipboardModeThreshold int           `mapstructure:"clipboard_mode_threshold"`
	AdaptiveDelay          bool          `mapstructure:"adaptive_delay"`
	MaxCharInterval        time.Duration `mapstructure:"max_char_interval"`
	SettleDelay            time.Duration `mapstructure:"settle_delay"`
	// RateLimit caps pastes per minute and LargeRateLimit caps pastes of
	// more than LargePasteChars characters per five minutes. Zero turns a
	// limit off.
	RateLimit       int `mapstructure:"rate_limit"`
	LargeRateLimit  int `mapstructure:"large_rate_limit"`
	LargePasteChars int `mapstructure:"large_paste_chars"`
}

type MonitorSettings struct {
	Enabled         bool          `mapstructure:"enabled"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	CallbackTimeout time.Duration `mapstructure:"callback_timeout"`
	ReadRetryBudget int           `mapstructure:"read_retry_budget"`
}

type HistorySettings struct {
	Size          int `mapstructure:"size"`
	RetentionDays int `mapstructure:"retention_days"`
}

type PrivacySettings struct {
	// Mode stops all history capture.
	Mode          bool `mapstructure:"mode"`
	SkipSensitive bool `mapstructure:"skip_sensitive"`
	// EncryptSensitive stores sensitive entries encrypted when they are
	// not skipped.
	EncryptSensitive bool `mapstructure:"encrypt_sensitive"`
	// ExcludedPatterns are regular expressions. Matching text is never
	// captured.
	ExcludedPatterns []string `mapstructure:"excluded_patterns"`
}

// Excluded compiles ExcludedPatterns. Validate has already rejected bad
// ones for loaded settings.
func (p PrivacySettings) Excluded() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(p.ExcludedPatterns))
	for _, pat := range p.ExcludedPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

type HotkeySettings struct {
	PasteLast     bool   `mapstructure:"paste_last"`
	PasteLastKeys string `mapstructure:"paste_last_keys"`
	EmergencyStop bool   `mapstructure:"emergency_stop"`
	// AbortKeys is pressed twice in quick succession to stop a paste.
	AbortKeys string `mapstructure:"abort_keys"`
}

func Default() Settings {
	return Settings{
		Paste: PasteSettings{
			Mode:                   "auto",
			ChunkSize:              200,
			CharInterval:           5 * time.Millisecond,
			ClipboardModeThreshold: 500,
			AdaptiveDelay:          false,
			MaxCharInterval:        50 * time.Millisecond,
			SettleDelay:            100 * time.Millisecond,
			RateLimit:              30,
			LargeRateLimit:         5,
			LargePasteChars:        10000,
		},
		Monitor: MonitorSettings{
			Enabled:         true,
			PollInterval:    500 * time.Millisecond,
			CallbackTimeout: 2 * time.Second,
			ReadRetryBudget: 3,
		},
		History: HistorySettings{
			Size:          100,
			RetentionDays: 7,
		},
		Privacy: PrivacySettings{
			SkipSensitive:    true,
			EncryptSensitive: true,
			ExcludedPatterns: []string{},
		},
		Hotkeys: HotkeySettings{
			PasteLast:     true,
			PasteLastKeys: hotkey.DefaultPasteLast,
			EmergencyStop: true,
			AbortKeys:     hotkey.DefaultAbort,
		},
	}
}

// SetDefaults registers every key so env vars and flags can override keys
// that never appear in a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("paste.mode", d.Paste.Mode)
	v.SetDefault("paste.chunk_size", d.Paste.ChunkSize)
	v.SetDefault("paste.char_interval", d.Paste.CharInterval)
	v.SetDefault("paste.clipboard_mode_threshold", d.Paste.ClipboardModeThreshold)
	v.SetDefault("paste.adaptive_delay", d.Paste.AdaptiveDelay)
	v.SetDefault("paste.max_char_interval", d.Paste.MaxCharInterval)
	v.SetDefault("paste.settle_delay", d.Paste.SettleDelay)
	v.SetDefault("paste.rate_limit", d.Paste.RateLimit)
	v.SetDefault("paste.large_rate_limit", d.Paste.LargeRateLimit)
	v.SetDefault("paste.large_paste_chars", d.Paste.LargePasteChars)
	v.SetDefault("monitor.enabled", d.Monitor.Enabled)
	v.SetDefault("monitor.poll_interval", d.Monitor.PollInterval)
	v.SetDefault("monitor.callback_timeout", d.Monitor.CallbackTimeout)
	v.SetDefault("monitor.read_retry_budget", d.Monitor.ReadRetryBudget)
	v.SetDefault("history.size", d.History.Size)
	v.SetDefault("history.retention_days", d.History.RetentionDays)
	v.SetDefault("privacy.mode", d.Privacy.Mode)
	v.SetDefault("privacy.skip_sensitive", d.Privacy.SkipSensitive)
	v.SetDefault("privacy.encrypt_sensitive", d.Privacy.EncryptSensitive)
	v.SetDefault("privacy.excluded_patterns", d.Privacy.ExcludedPatterns)
	v.SetDefault("hotkeys.paste_last", d.Hotkeys.PasteLast)
	v.SetDefault("hotkeys.paste_last_keys", d.Hotkeys.PasteLastKeys)
	v.SetDefault("hotkeys.emergency_stop", d.Hotkeys.EmergencyStop)
	v.SetDefault("hotkeys.abort_keys", d.Hotkeys.AbortKeys)
}

// Load reads settings into v. configFile overrides discovery under
// paths.ConfigDir(). A missing discovered file is not an error.
func Load(v *viper.Viper, paths Paths, configFile string) (Settings, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		v.AddConfigPath(paths.ConfigDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("PASTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: %w", err)
	}
	if s.Privacy.ExcludedPatterns == nil {
		s.Privacy.ExcludedPatterns = []string{}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes the settings as TOML to path.
func Save(s Settings, path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	v := viper.New()
	v.Set("paste", map[string]any{
		"mode":                     s.Paste.Mode,
		"chunk_size":               s.Paste.ChunkSize,
		"char_interval":            s.Paste.CharInterval.String(),
		"clipboard_mode_threshold": s.Paste.ClipboardModeThreshold,
		"adaptive_delay":           s.Paste.AdaptiveDelay,
		"max_char_interval":        s.Paste.MaxCharInterval.String(),
		"settle_delay":             s.Paste.SettleDelay.String(),
		"rate_limit":               s.Paste.RateLimit,
		"large_rate_limit":         s.Paste.LargeRateLimit,
		"large_paste_chars":        s.Paste.LargePasteChars,
	})
	v.Set("monitor", map[string]any{
		"enabled":           s.Monitor.Enabled,
		"poll_interval":     s.Monitor.PollInterval.String(),
		"callback_timeout":  s.Monitor.CallbackTimeout.String(),
		"read_retry_budget": s.Monitor.ReadRetryBudget,
	})
	v.Set("history", map[string]any{
		"size":           s.History.Size,
		"retention_days": s.History.RetentionDays,
	})
	v.Set("privacy", map[string]any{
		"mode":              s.Privacy.Mode,
		"skip_sensitive":    s.Privacy.SkipSensitive,
		"encrypt_sensitive": s.Privacy.EncryptSensitive,
		"excluded_patterns": s.Privacy.ExcludedPatterns,
	})
	v.Set("hotkeys", map[string]any{
		"paste_last":      s.Hotkeys.PasteLast,
		"paste_last_keys": s.Hotkeys.PasteLastKeys,
		"emergency_stop":  s.Hotkeys.EmergencyStop,
		"abort_keys":      s.Hotkeys.AbortKeys,
	})
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	v.SetConfigType("toml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	switch s.Paste.Mode {
	case "auto", "clipboard", "typing":
	default:
		check(false, "paste.mode %q must be auto, clipboard or typing", s.Paste.Mode)
	}
	check(s.Paste.ChunkSize >= 10 && s.Paste.ChunkSize <= 1000,
		"paste.chunk_size %d must be between 10 and 1000", s.Paste.ChunkSize)
	check(s.Paste.CharInterval >= time.Millisecond && s.Paste.CharInterval <= time.Second,
		"paste.char_interval %s must be between 1ms and 1s", s.Paste.CharInterval)
	check(s.Paste.MaxCharInterval >= s.Paste.CharInterval,
		"paste.max_char_interval %s is below char_interval", s.Paste.MaxCharInterval)
	check(s.Paste.ClipboardModeThreshold >= 0,
		"paste.clipboard_mode_threshold must not be negative")
	check(s.Paste.SettleDelay >= 0, "paste.settle_delay must not be negative")
	check(s.Paste.RateLimit >= 0, "paste.rate_limit must not be negative")
	check(s.Paste.LargeRateLimit >= 0, "paste.large_rate_limit must not be negative")
	check(s.Paste.LargePasteChars >= 1, "paste.large_paste_chars must be at least 1")
	check(s.Monitor.PollInterval >= 50*time.Millisecond,
		"monitor.poll_interval %s must be at least 50ms", s.Monitor.PollInterval)
	check(s.Monitor.CallbackTimeout > 0, "monitor.callback_timeout must be positive")
	check(s.Monitor.ReadRetryBudget >= 1, "monitor.read_retry_budget must be at least 1")
	check(s.History.Size >= 1 && s.History.Size <= 10000,
		"history.size %d must be between 1 and 10000", s.History.Size)
	check(s.History.RetentionDays >= 0 && s.History.RetentionDays <= 365,
		"history.retention_days %d must be between 0 and 365", s.History.RetentionDays)
	for _, pat := range s.Privacy.ExcludedPatterns {
		if _, err := regexp.Compile(pat); err != nil {
			check(false, "privacy.excluded_patterns %q: %v", pat, err)
		}
	}
	if _, err := hotkey.ParseCombo(s.Hotkeys.PasteLastKeys); err != nil {
		check(false, "hotkeys.paste_last_keys: %v", err)
	}
	if _, err := hotkey.ParseCombo(s.Hotkeys.AbortKeys); err != nil {
		check(false, "hotkeys.abort_keys: %v", err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
