package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pasta/clipboard"
	"pasta/engine"
	"pasta/hotkey"
	"pasta/log"
	"pasta/shutdown"
)

// defaultFocusWait gives the user time to click into the target field.
const defaultFocusWait = 3 * time.Second

func addPasteFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", "auto", "paste mode: auto, typing or clipboard")
	f.Duration("delay", 0, "delay between typed characters (e.g. 10ms)")
	f.Int("chunk-size", 0, "characters typed per chunk")
	f.Bool("adaptive", false, "slow typing down when the system is busy")
	f.Duration("wait", defaultFocusWait, "time to focus the target window before pasting")
	settingFlag(cmd, "mode", "paste.mode")
	settingFlag(cmd, "delay", "paste.char_interval")
	settingFlag(cmd, "chunk-size", "paste.chunk_size")
	settingFlag(cmd, "adaptive", "paste.adaptive_delay")
}

func newPasteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste [text|-]",
		Short: "Type or paste text into the focused window",
		Long: `Delivers text to whichever window has focus once --wait has passed.
With no argument, or "-", the text is read from stdin.

Typing mode sends the text as keystrokes, which works in fields that
block pasting. Clipboard mode borrows the clipboard, sends the paste
shortcut and puts the old contents back. Auto picks clipboard for short
text and typing for long text.

Press the abort key twice, or Ctrl+C, to stop a paste.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := pasteInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return deliver(cmd, a, func(ctx context.Context, e *engine.Engine) engine.Outcome {
				return e.Paste(ctx, engine.Request{Text: text, Mode: a.mode()})
			})
		},
	}
	addPasteFlags(cmd)
	return cmd
}

func newLastCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Paste the newest history entry into the focused window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			return deliver(cmd, a, func(ctx context.Context, e *engine.Engine) engine.Outcome {
				return e.PasteLast(ctx, store, a.mode())
			})
		},
	}
	addPasteFlags(cmd)
	return cmd
}

func pasteInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// deliver sets up the keyboard, waits for focus and runs paste with the
// abort key armed.
func deliver(cmd *cobra.Command, a *app, paste func(context.Context, *engine.Engine) engine.Outcome) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("keystroke output unavailable: %w (run \"pasta doctor\")", err)
	}
	e := a.newEngine(clipboard.Keyboard{}, clipboard.System{}, nil)

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()

	if a.settings.Hotkeys.EmergencyStop {
		if combo, err := hotkey.ParseCombo(a.settings.Hotkeys.AbortKeys); err == nil {
			hk := hotkey.New(combo)
			if err := hk.Register(); err != nil {
				log.Warnf("abort hotkey unavailable: %v", err)
			} else {
				defer hk.Unregister()
				go watchAbort(ctx, e, hk)
			}
		}
	}

	wait, _ := cmd.Flags().GetDuration("wait")
	if wait > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "pasting in %s, focus the target window...\n", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	out := paste(ctx, e)
	if !out.OK() {
		fmt.Fprintln(cmd.ErrOrStderr(), describe(out))
		return errFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), describe(out))
	return nil
}
