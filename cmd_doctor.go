package main

import (
	"time"

	"github.com/spf13/cobra"

	"pasta/clipboard"
	"pasta/doctor"
	"pasta/hotkey"
	"pasta/log"
)

func newDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Checks that pasta can write its files, read and restore the clipboard,
send keystrokes and see the paste-last hotkey. The last check waits for
you to press the hotkey; skip it with --no-press.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks := []doctor.Check{
				doctor.WritableDir("Config", a.paths.ConfigDir()),
				doctor.WritableDir("Data", a.paths.DataDir()),
				doctor.WritableDir("Log", log.Dir()),
				doctor.ClipboardRoundTrip(clipboard.System{}),
				doctor.Keyboard(clipboard.Init, clipboard.Verify),
				doctor.HotkeyBackend(hotkey.Diagnose),
			}
			if skip, _ := cmd.Flags().GetBool("no-press"); !skip {
				combo, err := hotkey.ParseCombo(a.settings.Hotkeys.PasteLastKeys)
				if err != nil {
					return err
				}
				wait, _ := cmd.Flags().GetDuration("press-timeout")
				checks = append(checks, doctor.HotkeyPress(hotkey.New(combo), combo.String(), wait))
			}
			if doctor.Run(cmd.Context(), cmd.OutOrStdout(), checks) != 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("no-press", false, "skip the interactive hotkey check")
	cmd.Flags().Duration("press-timeout", 10*time.Second, "how long to wait for the hotkey")
	return cmd
}
