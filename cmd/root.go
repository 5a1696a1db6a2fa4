// Package cmd implements the jsonlv command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsonlv/internal/config"
	"github.com/oakwood-commons/jsonlv/internal/formatter"
	"github.com/oakwood-commons/jsonlv/internal/ui"
	"github.com/oakwood-commons/jsonlv/internal/watch"
	"github.com/oakwood-commons/jsonlv/pkg/core"
	"github.com/oakwood-commons/jsonlv/pkg/export"
	"github.com/oakwood-commons/jsonlv/pkg/logger"
	"github.com/oakwood-commons/jsonlv/pkg/prefs"
	"github.com/oakwood-commons/jsonlv/pkg/settings"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	run *settings.Run

	debug       bool
	text        string
	output      view.Mode
	search      string
	key         string
	where       string
	columns     []string
	hideColumns []string
	exportDir   string
	copyIndex   int
	theme       string
	watch       bool
	stats       bool
	prefsFile   string
}

// Platform hooks; tests replace them.
var (
	stdinIsPiped  = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	stdoutIsPiped = func() bool { stat, _ := os.Stdout.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	runViewer     = ui.Run
	newPrefsStore = func(path string) (prefs.Store, error) { return prefs.NewFileStore(path) }
)

var rootCmd = newRootCmd()

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{run: settings.NewCliParams(), copyIndex: -1}
	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "View and filter JSON Lines data",
		Long: `jsonlv loads newline-delimited JSON from a file, --text or stdin and shows
it as a table, a tree, pretty-printed JSON or a raw JSON array.

Records can be narrowed with a free-text search, a key filter and a CEL
expression evaluated against each record bound to "_". Files ending in
.gz, .zst or .lz4 are decompressed transparently.`,
		Example: `  jsonlv app.log.jsonl
  cat app.jsonl | jsonlv --search timeout -o json
  jsonlv app.jsonl --key user.id --columns ts,level,msg
  jsonlv app.jsonl --where '_.level == "error"' --export ./out
  jsonlv -i --watch app.jsonl`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.execute(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.text, "text", "", "JSONL text to load instead of a file")
	f.VarP(modeValue{&o.output}, "output", "o", "view mode: table, tree, json or raw (default from config)")
	f.StringVarP(&o.search, "search", "s", "", "keep records whose values contain this text (case-insensitive)")
	f.StringVarP(&o.key, "key", "k", "", "keep records that have this dot-separated key path")
	f.StringVarP(&o.where, "where", "w", "", "keep records for which this CEL expression is true")
	f.StringSliceVar(&o.columns, "columns", nil, "show only these columns in table mode")
	f.StringSliceVar(&o.hideColumns, "hide-columns", nil, "hide these columns in table mode")
	f.StringVar(&o.exportDir, "export", "", "write the filtered records as a JSON array into this directory")
	f.IntVar(&o.copyIndex, "copy", -1, "copy the filtered record at this position to the clipboard")
	f.StringVar(&o.theme, "theme", "", "color theme: light or dark (saved for later runs)")
	f.BoolVar(&o.watch, "watch", false, "reload the file when it changes (interactive mode)")
	f.BoolVar(&o.stats, "stats", false, "print record counts to stderr")
	f.StringVar(&o.prefsFile, "prefs-file", "", "preferences file (default: user config dir)")
	f.BoolVarP(&o.run.Interactive, "interactive", "i", false, "open the interactive viewer")
	f.BoolVar(&o.run.NoColor, "no-color", false, "disable colored output")
	f.IntVar(&o.run.MaxDepth, "max-depth", 0, "maximum nesting depth of a record (default from config)")

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.run.ConfigFile, "config-file", "", "config file (YAML or TOML)")
	pf.BoolVar(&o.debug, "debug", false, "enable debug logging")
	pf.BoolVarP(&o.run.IsQuiet, "quiet", "q", false, "only log errors")

	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if o.debug {
			o.run.MinLogLevel = -1
		}
		lgr := logger.Get(o.run.LogLevel())
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logger.WithLogger(ctx, lgr)
		ctx = settings.IntoContext(ctx, o.run)
		cmd.SetContext(ctx)
	}

	cmd.AddCommand(newVersionCmd(), newKeysCmd(o), newConfigCmd(o), newFunctionsCmd())
	return cmd
}

func (o *rootOptions) execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lgr := logger.FromContext(ctx)

	cfg, err := config.Load(resolveConfigPath(o.run.ConfigFile))
	if err != nil {
		return err
	}
	opts, err := o.sessionOptions(cmd, cfg, *lgr)
	if err != nil {
		return err
	}
	session, err := core.New(opts...)
	if err != nil {
		return err
	}
	if o.theme != "" {
		t, err := prefs.ParseTheme(o.theme)
		if err != nil {
			return err
		}
		if err := session.SetTheme(t); err != nil {
			lgr.V(1).Info("could not save theme", "error", err.Error())
		}
	}

	loaded, err := o.ingest(cmd, session, args)
	if err != nil {
		return err
	}
	if !loaded && !o.run.Interactive {
		return cmd.Help()
	}
	o.reportSkipped(cmd.ErrOrStderr(), session)

	if err := o.applyCriteria(cmd.ErrOrStderr(), session); err != nil {
		return err
	}
	if o.stats {
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.RenderStats(session.Stats()))
	}

	switch {
	case o.copyIndex >= 0:
		method, err := session.CopyRecord(o.copyIndex, cfg.Clipboard.Fallback)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "copied record %d (%s)\n", o.copyIndex, method)
		return nil
	case o.exportDir != "":
		return o.exportTo(cmd.OutOrStdout(), session, cfg)
	case o.run.Interactive:
		return o.interactive(ctx, session, cfg, args)
	}

	out := formatter.Render(session.Render(), formatter.Options{
		Palette:      formatter.NewPalette(session.Theme(), o.colorDisabled()),
		MaxCellWidth: cfg.Table.MaxCellWidth,
		ShowIndex:    cfg.Table.ShowIndex,
	})
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
	return err
}

func (o *rootOptions) sessionOptions(cmd *cobra.Command, cfg config.Config, lgr logr.Logger) ([]core.Option, error) {
	mode := cfg.Mode()
	if o.output != "" {
		mode = o.output
	}
	depth := cfg.MaxDepth
	if cmd.Flags().Changed("max-depth") {
		if o.run.MaxDepth <= 0 {
			return nil, fmt.Errorf("--max-depth must be positive, got %d", o.run.MaxDepth)
		}
		depth = o.run.MaxDepth
	}

	opts := []core.Option{core.WithLogger(lgr), core.WithMaxDepth(depth), core.WithMode(mode)}
	store, err := newPrefsStore(o.prefsFile)
	if err != nil {
		lgr.V(1).Info("preferences unavailable, using memory", "error", err.Error())
		store = prefs.NewMemoryStore()
	}
	opts = append(opts, core.WithPrefs(store))
	if o.theme == "" && cfg.Theme != "" {
		t, err := prefs.ParseTheme(cfg.Theme)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithTheme(t))
	}
	return opts, nil
}

// ingest loads the positional file, --text or piped stdin, in that order.
// It reports false when no input was given.
func (o *rootOptions) ingest(cmd *cobra.Command, session *core.Session, args []string) (bool, error) {
	var err error
	switch {
	case len(args) == 1 && args[0] != "-":
		_, err = session.IngestFile(args[0])
	case o.text != "":
		_, err = session.IngestText(o.text)
	case len(args) == 1 || stdinIsPiped():
		_, err = session.IngestReader("-", cmd.InOrStdin())
	default:
		return false, nil
	}
	if errors.Is(err, core.ErrEmptyInput) && o.run.Interactive {
		return true, nil
	}
	return err == nil, err
}

func (o *rootOptions) reportSkipped(w io.Writer, session *core.Session) {
	skipped := session.Skipped()
	if len(skipped) == 0 || o.run.IsQuiet {
		return
	}
	fmt.Fprintf(w, "warning: skipped %d invalid line(s); first at line %d\n", len(skipped), skipped[0].Line)
}

func (o *rootOptions) applyCriteria(w io.Writer, session *core.Session) error {
	session.SetSearch(o.search)
	session.SetKeyFilter(o.key)
	if err := session.SetExpression(o.where); err != nil {
		return err
	}
	if !o.run.IsQuiet {
		for _, p := range session.UnknownExpressionPaths() {
			fmt.Fprintf(w, "warning: --where refers to %q, which no record has\n", p)
		}
	}
	if len(o.columns) > 0 {
		if err := session.ShowOnlyColumns(o.columns); err != nil {
			return err
		}
	}
	for _, col := range o.hideColumns {
		if err := session.SetColumnVisible(col, false); err != nil {
			return err
		}
	}
	return nil
}

func (o *rootOptions) exportTo(w io.Writer, session *core.Session, cfg config.Config) error {
	data, err := session.ExportJSON()
	if err != nil {
		return err
	}
	path, err := export.ToFile(o.exportDir, cfg.Export.Filename, data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, path)
	return err
}

func (o *rootOptions) interactive(ctx context.Context, session *core.Session, cfg config.Config, args []string) error {
	opts := ui.Options{
		NoColor:           o.colorDisabled(),
		MaxCellWidth:      cfg.Table.MaxCellWidth,
		ShowIndex:         cfg.Table.ShowIndex,
		ClipboardFallback: cfg.Clipboard.Fallback,
		ExportDir:         ".",
		ExportFilename:    cfg.Export.Filename,
	}
	if len(args) == 1 && args[0] != "-" {
		opts.Source = args[0]
		if o.watch {
			w, err := watch.New(args[0])
			if err != nil {
				return err
			}
			defer w.Close()
			opts.Watcher = w
		}
	} else if o.watch {
		return errors.New("--watch needs a file argument")
	}

	progOpts, cleanup := getProgramOptions()
	defer cleanup()
	return runViewer(ctx, session, opts, progOpts...)
}

func (o *rootOptions) colorDisabled() bool {
	return o.run.NoColor || os.Getenv("NO_COLOR") != "" || (!o.run.Interactive && stdoutIsPiped())
}
