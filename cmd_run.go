package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pasta/clipboard"
	"pasta/hotkey"
	"pasta/shutdown"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the clipboard and listen for the paste hotkeys",
		Long: `Records clipboard text into history and listens for the global hotkeys
until interrupted. Text that looks like a password, key or token is kept
out of history unless privacy.skip_sensitive is false, and is stored
encrypted when privacy.encrypt_sensitive is on. privacy.mode records
nothing, and privacy.excluded_patterns lists regular expressions whose
matches are never recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if test, _ := cmd.Flags().GetBool("test"); test {
				return runTestMode(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runSession(cmd, a)
		},
	}

	f := cmd.Flags()
	f.String("mode", "auto", "paste mode for the hotkey: auto, typing or clipboard")
	f.Duration("delay", 0, "delay between typed characters (e.g. 10ms)")
	f.Bool("monitor", true, "record clipboard changes into history")
	f.Duration("poll", 0, "clipboard poll interval (e.g. 500ms)")
	f.Bool("test", false, "Test mode (headless, stdin-driven)")
	f.MarkHidden("test")
	settingFlag(cmd, "mode", "paste.mode")
	settingFlag(cmd, "delay", "paste.char_interval")
	settingFlag(cmd, "monitor", "monitor.enabled")
	settingFlag(cmd, "poll", "monitor.poll_interval")
	return cmd
}

func runSession(cmd *cobra.Command, a *app) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("keystroke output unavailable: %w (run \"pasta doctor\")", err)
	}
	pasteCombo, err := hotkey.ParseCombo(a.settings.Hotkeys.PasteLastKeys)
	if err != nil {
		return err
	}
	abortCombo, err := hotkey.ParseCombo(a.settings.Hotkeys.AbortKeys)
	if err != nil {
		return err
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := newSession(a, sessionDeps{
		store:     store,
		injector:  clipboard.Keyboard{},
		clipboard: clipboard.System{},
		pasteLast: hotkey.New(pasteCombo),
		abort:     hotkey.New(abortCombo),
		out:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pasta %s running (mode %s)\n", version, s.mode)
	if s.pasteLast != nil {
		fmt.Fprintf(out, "  %s  paste the newest history entry\n", pasteCombo)
	}
	if s.abort != nil {
		fmt.Fprintf(out, "  %s twice  stop a paste\n", abortCombo)
	}
	fmt.Fprintln(out, "Press Ctrl+C to quit.")
	return s.serve(ctx)
}
