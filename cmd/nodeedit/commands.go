package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kevinwang15/nodeedit"
	"github.com/kevinwang15/nodeedit/store"
)

// reportedError is an error the command already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// app holds the persistent flags and what is derived from them.
type app struct {
	badgerDir string
	docName   string
	verbose   bool
	colorMode string

	log   *slog.Logger
	paint *painter
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "nodeedit",
		Short:         "View and edit one node of a JSON or YAML document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.badgerDir, "badger", "", "keep documents in the badger database at `DIR` instead of a file")
	pf.StringVar(&a.docName, "name", "", "document name inside the badger database")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log progress to stderr")
	pf.StringVar(&a.colorMode, "color", "auto", "colour output: auto, always or never")

	root.AddCommand(
		a.viewCmd(),
		a.editCmd(),
		a.pathCmd(),
		a.formatCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	p, err := newPainter(a.colorMode, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	a.paint = p
	return nil
}

func (a *app) viewCmd() *cobra.Command {
	var (
		pathFlag string
		asRows   bool
	)
	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Print the content of the node at --path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := nodeedit.ParsePath(pathFlag)
			if err != nil {
				return err
			}
			o, err := a.open(args)
			if err != nil {
				return err
			}
			defer o.close()

			text, err := o.doc.DocumentText()
			if err != nil {
				return err
			}
			node, err := nodeedit.NodeAt([]byte(text), path)
			if err != nil {
				return err
			}
			a.log.Debug("node resolved", slog.String("path", nodeedit.Render(path)), slog.Int("rows", len(node.Rows)))

			out := cmd.OutOrStdout()
			if asRows {
				b, err := json.MarshalIndent(node, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}
			s := nodeedit.NewSession(o.doc, nodeedit.Selected(node), nodeedit.WithLogger(a.log))
			fmt.Fprintln(out, a.paint.locator.Sprint(s.Locator()))
			_, err = fmt.Fprintln(out, s.Content())
			return err
		},
	}
	cmd.Flags().StringVarP(&pathFlag, "path", "p", "$", "node locator, e.g. $[\"a\"][0] or [\"a\",0]")
	cmd.Flags().BoolVar(&asRows, "rows", false, "print the node as JSON rows")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		pathFlag  string
		value     string
		valueFile string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Replace the node at --path with new JSON content",
		Long: "Replace the node at --path with new JSON content. When both the node\n" +
			"and the new content are objects the new keys are merged into the node.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := nodeedit.ParsePath(pathFlag)
			if err != nil {
				return err
			}
			text, err := editedText(cmd, value, valueFile)
			if err != nil {
				return err
			}
			o, err := a.open(args)
			if err != nil {
				return err
			}
			defer o.close()

			if !dryRun {
				return a.save(cmd, o.doc, path, text)
			}

			before, err := o.base.DocumentText()
			if err != nil && !(errors.Is(err, store.ErrNotFound) && len(path) == 0) {
				return err
			}
			scratch := store.NewMemory(before)
			if err := a.save(cmd, viewOf(o.name, scratch), path, text); err != nil {
				return err
			}
			after, _ := scratch.DocumentText()
			return a.paint.diff(cmd.OutOrStdout(), o.name, before, after)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&pathFlag, "path", "p", "$", "node locator, e.g. $[\"a\"][0] or [\"a\",0]")
	f.StringVar(&value, "value", "", "new JSON content of the node")
	f.StringVar(&valueFile, "value-file", "", "read the new content from `FILE` (- for stdin)")
	f.BoolVar(&dryRun, "dry-run", false, "print a diff instead of writing the document")
	cmd.MarkFlagsMutuallyExclusive("value", "value-file")
	cmd.MarkFlagsOneRequired("value", "value-file")
	return cmd
}

// save runs one edit cycle for the node at path against doc.
func (a *app) save(cmd *cobra.Command, doc store.Store, path nodeedit.Path, text string) error {
	if _, ok := doc.(*store.YAML); ok {
		// Reading first lets the YAML view pick up layout and comments,
		// which a root replacement would otherwise skip.
		if _, err := doc.DocumentText(); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	var s *nodeedit.Session
	s = nodeedit.NewSession(doc, nodeedit.Selected(nodeedit.Node{Path: path}),
		nodeedit.WithLogger(a.log),
		nodeedit.WithNotifier(nodeedit.NotifierFunc(func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", a.paint.failure.Sprint("error:"), err)
		})),
		nodeedit.WithOnClose(func() {
			a.log.Info("document updated", slog.String("path", s.Locator()))
		}),
	)
	s.Edit()
	s.SetBuffer(text)
	if err := s.Save(); err != nil {
		return &reportedError{err: err}
	}
	return nil
}

func editedText(cmd *cobra.Command, value, valueFile string) (string, error) {
	switch valueFile {
	case "":
		return value, nil
	case "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(valueFile)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *app) pathCmd() *cobra.Command {
	var pointer bool
	cmd := &cobra.Command{
		Use:   "path SEGMENTS",
		Short: "Render a JSON array of keys and indices as a locator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := nodeedit.ParsePath(args[0])
			if err != nil {
				return err
			}
			out := path.String()
			if pointer {
				out = path.Pointer()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&pointer, "pointer", false, "print an RFC 6901 JSON pointer instead")
	return cmd
}

func (a *app) formatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Format a JSON array of rows read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []nodeedit.Row
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&rows); err != nil {
				return fmt.Errorf("decode rows: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), nodeedit.Format(rows))
			return err
		},
	}
}
