package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tordrt/tablesmith"
	"github.com/tordrt/tablesmith/internal/applier"
	"github.com/tordrt/tablesmith/internal/bootstrap"
	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/metrics"
)

var (
	dbURL       string
	schemaFile  string
	overwrite   bool
	verbose     bool
	metricsFile string
	pushGateway string
	product     string
	format      string
	outputFile  string
	outputDir   string
	withSeeds   bool
)

var rootCmd = &cobra.Command{
	Use:   "tablesmith",
	Short: "Create database tables from a YAML schema",
	Long:  `Tablesmith creates tables on PostgreSQL, MySQL, SQLite, or SQL Server from a YAML schema file, seeding base data before keys, foreign keys, and indexes are added.`,

	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and seed every table in the schema file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var createCmd = &cobra.Command{
	Use:   "create <table>",
	Short: "Create and seed one table from the schema file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var dropCmd = &cobra.Command{
	Use:   "drop <table>",
	Short: "Drop a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

var existsCmd = &cobra.Command{
	Use:   "exists <table>",
	Short: "Report whether a table exists (exit status 2 when it does not)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExists,
}

var planCmd = &cobra.Command{
	Use:   "plan [table...]",
	Short: "Print the statements a bootstrap would run, without connecting",
	RunE:  runPlan,
}

// errMissing makes exists exit with status 2 instead of 1.
type errMissing struct{ table string }

func (e errMissing) Error() string { return fmt.Sprintf("table %s does not exist", e.table) }

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "Database URL (postgres://, mysql://, sqlite://, sqlserver://)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every executed statement")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	rootCmd.PersistentFlags().StringVar(&pushGateway, "pushgateway", "", "Push metrics to this Prometheus Pushgateway URL when done")

	for _, cmd := range []*cobra.Command{initCmd, createCmd, planCmd} {
		cmd.Flags().StringVarP(&schemaFile, "schema", "s", "schema.yaml", "Schema file")
	}
	for _, cmd := range []*cobra.Command{initCmd, createCmd} {
		cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Drop and recreate tables that already exist")
	}

	planCmd.Flags().StringVarP(&product, "product", "p", "", "Database product: postgres, mysql, sqlite, or sqlserver (default: from --db-url)")
	planCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown")
	planCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	planCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	planCmd.Flags().BoolVar(&withSeeds, "with-seeds", false, "Include identity-seed statements")

	rootCmd.AddCommand(initCmd, createCmd, dropCmd, existsCmd, planCmd)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// connect opens a session and an applier on it. The returned func closes the
// session and flushes metrics.
func connect(ctx context.Context) (*applier.Applier, func(), error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url must be specified")
	}

	session, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	m := metrics.New()
	logger := newLogger(os.Stderr, verbose)
	a, err := applier.New(session, applier.WithLogger(logger), applier.WithMetrics(m))
	if err != nil {
		_ = session.Close(ctx)
		return nil, nil, err
	}

	done := func() {
		if err := session.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close database connection: %v\n", err)
		}
		flushMetrics(m)
	}
	return a, done, nil
}

func flushMetrics(m *metrics.Metrics) {
	if metricsFile != "" {
		if err := m.WriteFile(metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if pushGateway != "" {
		if err := m.Push(pushGateway, ""); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := bootstrap.Load(schemaFile)
	if err != nil {
		return err
	}

	a, done, err := connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	return bootstrap.Initialize(ctx, a, doc, overwrite)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := bootstrap.Load(schemaFile)
	if err != nil {
		return err
	}
	if _, err := selectTables(doc, args); err != nil {
		return fmt.Errorf("%s: %w", schemaFile, err)
	}

	a, done, err := connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	return createOne(ctx, a, doc, args[0], overwrite)
}

// createOne creates and seeds the named table of doc. Seed rows come from
// the whole document, logged through the applier's logger.
func createOne(ctx context.Context, a *applier.Applier, doc *bootstrap.Document, name string, overwrite bool) error {
	selected, err := selectTables(doc, []string{name})
	if err != nil {
		return err
	}
	return a.Initialize(ctx, bootstrap.NewCreation(selected, overwrite), bootstrap.NewBaseData(doc, a.Logger()))
}

func runDrop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, done, err := connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	return a.DropTable(ctx, args[0])
}

func runExists(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, done, err := connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	exists, err := a.TableExists(ctx, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), exists)
	if !exists {
		return errMissing{table: args[0]}
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	target, err := planProduct(product, dbURL)
	if err != nil {
		return err
	}

	doc, err := bootstrap.Load(schemaFile)
	if err != nil {
		return err
	}
	doc, err = selectTables(doc, args)
	if err != nil {
		return err
	}

	plans, err := tablesmith.Plan(doc, target)
	if err != nil {
		return err
	}

	outOpts := &tablesmith.OutputOptions{
		Writer:    cmd.OutOrStdout(),
		OutputDir: outputDir,
		Format:    format,
		WithSeeds: withSeeds,
	}
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		outOpts.Writer = f
	}

	if err := tablesmith.FormatPlans(plans, outOpts); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

// planProduct picks the product to plan for: the explicit flag, else the
// scheme of the database URL.
func planProduct(flag, url string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if url == "" {
		return "", fmt.Errorf("one of --product or --db-url must be specified")
	}
	p, _, err := db.ParseURL(url)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// selectTables keeps only the named tables, in document order. No names
// keeps everything.
func selectTables(doc *bootstrap.Document, names []string) (*bootstrap.Document, error) {
	if len(names) == 0 {
		return doc, nil
	}

	s := doc.Schema()
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := s.Lookup(name); err != nil {
			return nil, err
		}
		want[name] = true
	}

	selected := &bootstrap.Document{}
	for _, spec := range doc.Tables {
		if want[spec.Name] {
			selected.Tables = append(selected.Tables, spec)
		}
	}
	return selected, nil
}

// errorCode returns the driver error code behind a failed statement, or "".
func errorCode(err error) string {
	var execErr *applier.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Code()
	}
	return ""
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if code := errorCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "code=%s\n", code)
		}
		if _, ok := err.(errMissing); ok {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
