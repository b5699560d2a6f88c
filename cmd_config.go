package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"pasta/config"
	"pasta/log"
	"pasta/login"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				keys := a.v.AllKeys()
				slices.Sort(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", k, a.v.Get(k))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print where pasta keeps its files",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				w := cmd.OutOrStdout()
				cfg := a.v.ConfigFileUsed()
				if cfg == "" {
					cfg = config.ConfigFile(a.paths) + " (not created)"
				}
				fmt.Fprintf(w, "config   %s\n", cfg)
				fmt.Fprintf(w, "history  %s\n", config.HistoryDB(a.paths))
				fmt.Fprintf(w, "snippets %s\n", config.SnippetsFile(a.paths))
				fmt.Fprintf(w, "logs     %s\n", log.Dir())
			},
		},
		newConfigInitCmd(a),
		newAutostartCmd(),
	)
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ConfigFile(a.paths)
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(a.settings, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func newAutostartCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "autostart [on|off]",
		Short:     "Start \"pasta run\" when you log in",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				state := "off"
				if login.Enabled() {
					state = "on"
				}
				fmt.Fprintf(w, "autostart is %s\n", state)
				return nil
			}
			switch args[0] {
			case "on":
				if err := login.Enable(); err != nil {
					return err
				}
			case "off":
				if err := login.Disable(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("want on or off, got %q", args[0])
			}
			fmt.Fprintf(w, "autostart %s\n", args[0])
			return nil
		},
	}
}
