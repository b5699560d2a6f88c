package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pasta/engine"
	"pasta/snippet"
)

func newSnippetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snippet",
		Aliases: []string{"snippets"},
		Short:   "Manage reusable text snippets",
	}
	cmd.AddCommand(
		newSnippetAddCmd(a),
		newSnippetListCmd(a),
		newSnippetShowCmd(a),
		newSnippetEditCmd(a),
		newSnippetRmCmd(a),
		newSnippetUseCmd(a),
		newSnippetNewCmd(a),
		newSnippetExportCmd(a),
		newSnippetImportCmd(a),
	)
	return cmd
}

func addSnippetFields(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("category", "", "category (default \""+snippet.DefaultCategory+"\")")
	f.String("hotkey", "", "hotkey such as ctrl+alt+1")
	f.StringSlice("tag", nil, "tag, repeatable")
	f.Bool("template", false, "treat the content as a template with {{name}} placeholders")
}

func newSnippetAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> [content|-]",
		Short: "Add a snippet",
		Long: `Adds a snippet. With no content argument, or "-", the content is read
from stdin.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := pasteInput(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			category, _ := f.GetString("category")
			hk, _ := f.GetString("hotkey")
			tags, _ := f.GetStringSlice("tag")
			tmpl, _ := f.GetBool("template")

			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			s, err := m.Add(snippet.Snippet{
				Name:       args[0],
				Content:    content,
				Category:   category,
				Hotkey:     hk,
				Tags:       tags,
				IsTemplate: tmpl,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", s.ID)
			return nil
		},
	}
	addSnippetFields(cmd)
	return cmd
}

func newSnippetListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cats, _ := f.GetBool("categories"); cats {
				for _, c := range m.Categories() {
					fmt.Fprintln(w, c)
				}
				return nil
			}

			var list []snippet.Snippet
			category, _ := f.GetString("category")
			tag, _ := f.GetString("tag")
			q, _ := f.GetString("search")
			top, _ := f.GetInt("top")
			switch {
			case top > 0:
				list = m.MostUsed(top)
			case q != "":
				list = m.Search(q)
			case category != "":
				list = m.ByCategory(category)
			case tag != "":
				list = m.ByTag(tag)
			default:
				list = m.All()
			}
			printSnippets(w, list)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("category", "", "only this category")
	f.String("tag", "", "only snippets with this tag")
	f.String("search", "", "match name, content or tags")
	f.Int("top", 0, "the N most used snippets")
	f.Bool("categories", false, "list category names instead")
	return cmd
}

func newSnippetShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a snippet's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			s, err := m.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Content)
			return nil
		},
	}
}

func newSnippetEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a snippet's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var u snippet.Update
			if f.Changed("name") {
				v, _ := f.GetString("name")
				u.Name = &v
			}
			if f.Changed("content") {
				v, _ := f.GetString("content")
				u.Content = &v
			}
			if f.Changed("category") {
				v, _ := f.GetString("category")
				u.Category = &v
			}
			if f.Changed("hotkey") {
				v, _ := f.GetString("hotkey")
				u.Hotkey = &v
			}
			if f.Changed("tag") {
				v, _ := f.GetStringSlice("tag")
				u.Tags = &v
			}
			if f.Changed("template") {
				v, _ := f.GetBool("template")
				u.IsTemplate = &v
			}

			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			s, err := m.Update(args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", s.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("content", "", "new content")
	addSnippetFields(cmd)
	return cmd
}

func newSnippetRmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [id...]",
		Short: "Delete snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			var n int
			if category, _ := cmd.Flags().GetString("category"); category != "" {
				n = m.DeleteCategory(category)
			}
			if len(args) == 1 {
				if err := m.Delete(args[0]); err != nil {
					return err
				}
				n++
			} else if len(args) > 1 {
				n += m.BulkDelete(args)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d snippets\n", n)
			return nil
		},
	}
	cmd.Flags().String("category", "", "delete every snippet in this category")
	return cmd
}

func newSnippetUseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Paste a snippet into the focused window",
		Long: `Renders the snippet, filling {{name}} placeholders from --var, and
delivers it like "pasta paste". With --print the text goes to stdout
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, _ := cmd.Flags().GetStringToString("var")
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			text, err := m.Render(args[0], vars)
			if err != nil {
				return err
			}
			if _, err := m.Use(args[0]); err != nil {
				return err
			}
			if p, _ := cmd.Flags().GetBool("print"); p {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			return deliver(cmd, a, func(ctx context.Context, e *engine.Engine) engine.Outcome {
				return e.Paste(ctx, engine.Request{Text: text, Mode: a.mode()})
			})
		},
	}
	cmd.Flags().StringToString("var", nil, "template value, e.g. --var name=Ada")
	cmd.Flags().Bool("print", false, "print instead of pasting")
	addPasteFlags(cmd)
	return cmd
}

func newSnippetNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <template-id> <name>",
		Short: "Create a snippet from a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, _ := cmd.Flags().GetStringToString("var")
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			s, err := m.FromTemplate(args[0], args[1], vars)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", s.ID)
			return nil
		},
	}
	cmd.Flags().StringToString("var", nil, "template value, e.g. --var name=Ada")
	return cmd
}

func newSnippetExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file|-]",
		Short: "Write every snippet as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				return m.Export(cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := m.Export(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newSnippetImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load snippets from a JSON export",
		Long: `Loads an export. With --merge, snippets whose id already exists are
skipped; without it the collection is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merge, _ := cmd.Flags().GetBool("merge")
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			m, err := a.openSnippets()
			if err != nil {
				return err
			}
			n, err := m.Import(r, merge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d snippets from the export\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("merge", false, "keep existing snippets")
	return cmd
}

func printSnippets(w io.Writer, list []snippet.Snippet) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no snippets")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tHOTKEY\tUSES\tTAGS")
	for _, s := range list {
		name := s.Name
		if s.IsTemplate {
			name += " (template)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", s.ID, name, s.Category, s.Hotkey, s.UseCount, strings.Join(s.Tags, ","))
	}
	tw.Flush()
}
