// tskit — Translation Synchronization Kit for Qt .ts catalogs.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linguakit/tskit/batch"
	"github.com/linguakit/tskit/config"
	"github.com/linguakit/tskit/gitscan"
	"github.com/linguakit/tskit/i18n"
	"github.com/linguakit/tskit/langmeta"
	"github.com/linguakit/tskit/lockfile"
	"github.com/linguakit/tskit/table"
	"github.com/linguakit/tskit/tsfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Colored stderr log tags
var (
	tagInfo    = color.New(color.FgBlue).Sprint("[INFO]")
	tagSuccess = color.New(color.FgGreen).Sprint("[OK]")
	tagWarning = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	tagError   = color.New(color.FgRed).Sprint("[ERROR]")

	heading = color.New(color.FgBlue).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagSuccess+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarning+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tskit",
		Short: "Translation Synchronization Kit for Qt .ts catalogs",
		Long: `tskit — Translation Synchronization Kit for Qt .ts catalogs.

Keeps a family of Qt translation catalogs (app_zh_CN.ts, app_zh_HK.ts, ...)
in sync with the source tree. Collects new strings from revision history,
exports pending work as a Markdown table for translators, and imports the
filled table back into every catalog with minimal byte changes.

Commands:
  status        Show catalog paths and per-language translation progress
  collect       Scan revision history for new translatable strings
  export        Emit a translation table (from git history or a catalog)
  import        Apply a filled translation table to all catalogs
  untranslated  List pending entries of one catalog
  version       Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newCollectCmd(),
		newExportCmd(),
		newImportCmd(),
		newUntranslatedCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tskit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: catalog info + per-language progress)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog paths and translation progress",
		Long: `Show the configured catalogs and per-language translation progress.

Reads .tskit.yaml (or defaults) and every catalog file it names.
Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", heading(i18n.T("Catalog")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(cfg.Root())
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Base:       %s\n", cfg.Base)
	fmt.Fprintf(os.Stderr, "  Source:     %s\n", cfg.SourceLang)
	fmt.Fprintf(os.Stderr, "  %s:  %s\n", i18n.T("Languages"), strings.Join(cfg.Languages, ", "))
	fmt.Fprintln(os.Stderr)

	fmt.Fprintf(os.Stderr, "%s\n", heading("Translation Statistics"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-12s %-8s %-10s %-10s %-8s\n", "Lang", "Total", "Finished", "Pending", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	var missing []string
	for _, lang := range cfg.Languages {
		store := tsfile.NewStore(cfg.TSPath(lang), lang)
		store.SetMaxFileSize(cfg.Limits.MaxFileSize)

		if err := store.Load(); err != nil {
			if errors.Is(err, tsfile.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "%-12s %-8s %-10s %-10s %-8s\n", lang, "missing", "-", "-", "-")
				missing = append(missing, lang)
				continue
			}
			return err
		}

		total, finished, unfinished, vanished := store.File().Stats()
		percent := 0
		if total > 0 {
			percent = finished * 100 / total
		}
		fmt.Fprintf(os.Stderr, "%-12s %-8d %-10d %-10d %d%%\n", lang, total, finished, unfinished+vanished, percent)
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	for _, lang := range cfg.Languages {
		meta := langmeta.Resolve(lang)
		if meta.Flag != "" {
			fmt.Fprintf(os.Stderr, "  %s %s — %s\n", meta.Flag, lang, meta.Name)
		}
	}
	fmt.Fprintln(os.Stderr)

	if len(missing) > 0 {
		logWarning("Missing catalog(s): %s. Run 'tskit import' to create them.", strings.Join(missing, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// collect (scan revision history for new translatable strings)
// ---------------------------------------------------------------------------

func newCollectCmd() *cobra.Command {
	var (
		commitRange string
		maxCommits  int
		apply       bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Scan revision history for new translatable strings",
		Long: `Scan added lines in a git commit range for tr() and
QCoreApplication::translate() calls and report the strings found.

With --apply, the strings are inserted into every catalog as
unfinished entries. Without it, they are only listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(commitRange, maxCommits, apply)
		},
	}

	cmd.Flags().StringVar(&commitRange, "range", "", "Commit range to scan (default from config)")
	cmd.Flags().IntVar(&maxCommits, "max-commits", 0, "Maximum commits in range (default from config)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Insert found strings into every catalog")

	return cmd
}

func runCollect(commitRange string, maxCommits int, apply bool) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if commitRange == "" {
		commitRange = cfg.CommitRange
	}
	if maxCommits <= 0 {
		maxCommits = cfg.Limits.MaxCommits
	}

	logInfo("Scanning %s for translation calls", commitRange)
	units, err := gitscan.Collect(cfg.Root(), commitRange, cfg.Sources, maxCommits)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		logInfo("%s", i18n.T("No candidate strings found"))
		return nil
	}

	for _, u := range units {
		fmt.Printf("%s\t%s\n", u.Context, u.Source)
	}
	logSuccess("Found %d string(s)", len(units))

	if !apply {
		return nil
	}

	stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	report, err := batch.Apply(unitRecords(units), stores)
	if err != nil {
		return err
	}
	printBatchReport(report)
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("failed to persist %s", strings.Join(failed, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// export (emit a translation table for translators)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var (
		fromGit     bool
		fromCatalog string
		commitRange string
		changedOnly bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Emit a translation table (Markdown)",
		Long: `Emit a Markdown translation table for translators.

  --from-git        rows come from strings added in a commit range
  --from-catalog L  rows are the untranslated entries of catalog L

The table's language columns follow the configured languages. With
--changed-only, rows already exported (per tskit.lock) are skipped
and the lock is updated after a successful export.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromGit == (fromCatalog != "") {
				return fmt.Errorf("exactly one of --from-git or --from-catalog is required")
			}
			return runExport(fromGit, fromCatalog, commitRange, changedOnly, output)
		},
	}

	cmd.Flags().BoolVar(&fromGit, "from-git", false, "Export strings added in a commit range")
	cmd.Flags().StringVar(&fromCatalog, "from-catalog", "", "Export untranslated entries of one catalog language")
	cmd.Flags().StringVar(&commitRange, "range", "", "Commit range for --from-git (default from config)")
	cmd.Flags().BoolVar(&changedOnly, "changed-only", false, "Skip rows already exported per tskit.lock")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the table to a file instead of stdout")

	return cmd
}

func runExport(fromGit bool, fromCatalog, commitRange string, changedOnly bool, output string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	var (
		units   []tsfile.Unit
		lockKey string
	)
	if fromGit {
		if commitRange == "" {
			commitRange = cfg.CommitRange
		}
		lockKey = "git"
		units, err = gitscan.Collect(cfg.Root(), commitRange, cfg.Sources, cfg.Limits.MaxCommits)
		if err != nil {
			return err
		}
	} else {
		if err := config.ValidateLang(fromCatalog); err != nil {
			return err
		}
		store := tsfile.NewStore(cfg.TSPath(fromCatalog), fromCatalog)
		store.SetMaxFileSize(cfg.Limits.MaxFileSize)
		if err := store.Load(); err != nil {
			return err
		}
		lockKey = cfg.Base + "_" + fromCatalog
		units = store.File().UntranslatedUnits()
	}

	var lock *lockfile.File
	if changedOnly {
		lock, err = lockfile.Load(cfg.Root())
		if err != nil {
			return err
		}
		before := len(units)
		units = lock.FilterChanged(lockKey, units)
		if skipped := before - len(units); skipped > 0 {
			logInfo("Skipping %d already exported row(s)", skipped)
		}
	}

	if len(units) == 0 {
		logInfo("%s", i18n.T("No untranslated entries"))
		return nil
	}

	codec := newCodec(cfg)
	text := codec.Encode(unitRecords(units))

	if output == "" {
		fmt.Print(text)
	} else {
		if err := os.WriteFile(output, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		logSuccess("Wrote %d row(s) to %s", len(units), output)
	}

	if lock != nil {
		lock.Record(lockKey, units)
		if err := lock.Save(); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// import (apply a filled translation table to all catalogs)
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [table-file]",
		Short: "Apply a filled translation table to all catalogs",
		Long: `Parse a Markdown translation table and merge its rows into every
configured catalog. Reads from stdin when no file is given or the
file is "-".

Each row updates one entry per language column. Rows with no
translation in any column create unfinished entries. Catalogs are
written atomically and only when their content actually changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "-"
			if len(args) == 1 {
				file = args[0]
			}
			return runImport(file)
		},
	}

	return cmd
}

func runImport(file string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	var data []byte
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
	}

	recs, err := newCodec(cfg).Decode(string(data))
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		logInfo("Nothing to import")
		return nil
	}

	stores, err := openStores(cfg)
	if err != nil {
		return err
	}

	report, err := batch.Apply(recs, stores)
	if err != nil {
		return err
	}
	printBatchReport(report)

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("failed to persist %s", strings.Join(failed, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// untranslated (list pending entries of one catalog)
// ---------------------------------------------------------------------------

func newUntranslatedCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "untranslated",
		Short: "List pending entries of one catalog",
		Long: `List the entries of one catalog that still need translation.
Vanished entries are excluded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntranslated(lang)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Catalog language (default: first configured)")

	return cmd
}

func runUntranslated(lang string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = cfg.Languages[0]
	}

	store := tsfile.NewStore(cfg.TSPath(lang), lang)
	store.SetMaxFileSize(cfg.Limits.MaxFileSize)
	if err := store.Load(); err != nil {
		return err
	}

	units := store.File().UntranslatedUnits()
	if len(units) == 0 {
		logSuccess("%s", i18n.T("No untranslated entries"))
		return nil
	}
	for _, u := range units {
		if u.Comment != "" {
			fmt.Printf("%s\t%s\t# %s\n", u.Context, u.Source, u.Comment)
		} else {
			fmt.Printf("%s\t%s\n", u.Context, u.Source)
		}
	}
	logInfo("%d untranslated entr%s in %s", len(units), plural(len(units), "y", "ies"), store.Path())
	return nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// openStores loads (or creates) one store per configured language.
func openStores(cfg *config.Config) (map[string]*tsfile.Store, error) {
	stores := make(map[string]*tsfile.Store, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		store := tsfile.NewStore(cfg.TSPath(lang), lang)
		store.SetMaxFileSize(cfg.Limits.MaxFileSize)
		if err := store.LoadOrCreate(); err != nil {
			return nil, err
		}
		stores[lang] = store
	}
	return stores, nil
}

// newCodec builds the transport table codec from the configured
// languages and limits.
func newCodec(cfg *config.Config) *table.Codec {
	codec := table.NewCodec(cfg.Languages)
	codec.MaxRows = cfg.Limits.MaxTableRows
	codec.MaxCellLen = cfg.Limits.MaxCellLen
	return codec
}

// unitRecords converts extracted units to translation-free table rows.
func unitRecords(units []tsfile.Unit) []table.Record {
	recs := make([]table.Record, 0, len(units))
	for _, u := range units {
		recs = append(recs, table.Record{
			Context: u.Context,
			Source:  u.Source,
			Comment: u.Comment,
		})
	}
	return recs
}

func printBatchReport(report *batch.Report) {
	langs := make([]string, 0, len(report.PerLanguage))
	for lang := range report.PerLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		res := report.PerLanguage[lang]
		if res.Err != nil {
			logError("%s: %v", lang, res.Err)
			continue
		}
		state := "unchanged"
		if res.Written {
			state = "written"
		}
		logInfo("%s: %s (%s)", lang, res.Merge, state)
	}

	totals := report.Totals()
	logSuccess("Applied %d row(s) in %s: %s", report.Units, report.Elapsed.Round(time.Millisecond), totals)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
