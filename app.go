package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pasta/config"
	"pasta/engine"
	"pasta/history"
	"pasta/log"
	"pasta/rate"
	"pasta/snippet"
)

// app carries what every command needs once flags are parsed.
type app struct {
	v        *viper.Viper
	paths    config.Paths
	settings config.Settings
}

// setup resolves directories, starts the diagnostics log and loads
// settings. Precedence (lowest to highest): defaults, config file,
// PASTA_* env vars, flags.
func (a *app) setup(cmd *cobra.Command) error {
	f := cmd.Flags()

	home, _ := f.GetString("home")
	if home == "" {
		home = os.Getenv("PASTA_HOME")
	}
	if home != "" {
		a.paths = config.RootedAt(home)
	} else {
		p, err := config.DefaultPaths()
		if err != nil {
			return err
		}
		a.paths = p
	}

	logPath, _ := f.GetString("logpath")
	dir, err := log.ResolveDir(logPath, a.paths.LogDir())
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(dir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		initCrashLog(dir)
	}

	if err := bindSettingFlags(cmd, a.v); err != nil {
		return err
	}
	configFile, _ := f.GetString("config")
	s, err := config.Load(a.v, a.paths, configFile)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

const settingAnnotation = "pasta_setting"

// settingFlag ties a command flag to a settings key so it overrides the
// config file and env vars.
func settingFlag(cmd *cobra.Command, name, key string) {
	cmd.Flags().SetAnnotation(name, settingAnnotation, []string{key})
}

func bindSettingFlags(cmd *cobra.Command, v *viper.Viper) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[settingAnnotation]
		if err != nil || len(keys) == 0 {
			return
		}
		err = v.BindPFlag(keys[0], f)
	})
	if err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func (a *app) mode() engine.Mode {
	return engine.ParseMode(a.settings.Paste.Mode)
}

// newEngine builds a paste engine from the loaded settings.
func (a *app) newEngine(inj engine.Injector, clip engine.Clipboard, own func(string)) *engine.Engine {
	p := a.settings.Paste
	return engine.New(engine.Options{
		Injector:               inj,
		Clipboard:              clip,
		ChunkSize:              p.ChunkSize,
		ClipboardModeThreshold: p.ClipboardModeThreshold,
		SettleDelay:            p.SettleDelay,
		Rate: rate.Controller{
			Base:     p.CharInterval,
			Max:      p.MaxCharInterval,
			Adaptive: p.AdaptiveDelay,
		},
		Load:     rate.NewSystem(),
		Quota:    rate.NewQuota(p.RateLimit, p.LargeRateLimit, p.LargePasteChars),
		OwnWrite: own,
	})
}

// openHistory loads the history key when encryption is on, or when a key
// from earlier runs exists so old encrypted entries stay readable.
func (a *app) openHistory() (*history.Store, error) {
	var opts []history.Option
	keyFile := config.KeyFile(a.paths)
	if _, err := os.Stat(keyFile); a.settings.Privacy.EncryptSensitive || err == nil {
		key, err := history.LoadKey(keyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, history.WithKey(key))
	}
	return history.Open(config.HistoryDB(a.paths), opts...)
}

func (a *app) openSnippets() (*snippet.Manager, error) {
	return snippet.Open(config.SnippetsFile(a.paths))
}
