package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"pasta/clipboard"
	"pasta/history"
	"pasta/sensitive"
)

const previewWidth = 60

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the clipboard history",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistorySearchCmd(a),
		newHistoryShowCmd(a),
		newHistoryCopyCmd(a),
		newHistoryRmCmd(a),
		newHistoryClearCmd(a),
	)
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			reveal, _ := cmd.Flags().GetBool("reveal")
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries, reveal)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	cmd.Flags().Bool("reveal", false, "show sensitive entries unredacted")
	return cmd
}

func newHistorySearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find entries containing text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			reveal, _ := cmd.Flags().GetBool("reveal")
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries, reveal)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	cmd.Flags().Bool("reveal", false, "show sensitive entries unredacted")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one entry in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntry(cmd, a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), e.Content)
			if !strings.HasSuffix(e.Content, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newHistoryCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Put an entry back on the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntry(cmd, a, args[0])
			if err != nil {
				return err
			}
			if err := clipboard.Copy(e.Content); err != nil {
				return fmt.Errorf("clipboard write failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied entry %d\n", e.ID)
			return nil
		},
	}
}

func newHistoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", len(args))
			return nil
		},
	}
}

func newHistoryClearCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to clear history without --yes")
			}
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm")
	return cmd
}

func lookupEntry(cmd *cobra.Command, a *app, arg string) (*history.Entry, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	store, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(cmd.Context(), id)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func printEntries(w io.Writer, entries []history.Entry, reveal bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "history is empty")
		return
	}
	d := sensitive.New()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOPIED\tTYPE\tCONTENT")
	for _, e := range entries {
		content := e.Content
		if e.Sensitive && !reveal {
			content = d.Redact(content)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.ContentType, preview(content, previewWidth))
	}
	tw.Flush()
}

// preview flattens text to one line of at most width characters.
func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if uniseg.GraphemeClusterCount(s) <= width {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < width-3 && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return b.String() + "..."
}
