package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nfl-season-stats/internal/api"
	"github.com/pfrederiksen/nfl-season-stats/internal/config"
	"github.com/pfrederiksen/nfl-season-stats/internal/logger"
	"github.com/pfrederiksen/nfl-season-stats/internal/runner"
	"github.com/pfrederiksen/nfl-season-stats/internal/scraper"
	"github.com/pfrederiksen/nfl-season-stats/internal/season"
	"github.com/pfrederiksen/nfl-season-stats/internal/storage"
	"github.com/pfrederiksen/nfl-season-stats/internal/store"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// errPartial marks a run that wrote a dataset but skipped failed seasons
var errPartial = errors.New("some seasons failed")

var (
	flagConfig          string
	flagVerbose         bool
	flagFrom            int
	flagTo              int
	flagOut             string
	flagFormat          string
	flagSort            string
	flagContinueOnError bool
	flagBrowser         bool
	flagNames           string
	flagDSN             string
	flagCron            string
	flagRunNow          bool
	flagAddr            string
	flagFromFile        string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nfl-stats",
		Short: "Build a per-team, per-season NFL statistics dataset",
		Long: `A CLI tool that scrapes NFL standings and team statistics from
pro-football-reference.com, normalizes team names across relocations and
rebrands, and combines every season into one dataset keyed by team and season.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flagNames, "names", "", "Team name map version (e.g., V2022)")
	cmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Postgres connection string")

	cmd.AddCommand(newScrapeCmd(), newScheduleCmd(), newServeCmd())
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagFrom, "from", 0, "Newest season to combine (default from config)")
	cmd.Flags().IntVar(&flagTo, "to", 0, "Oldest season to combine (default from config)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file, or - for stdout (default data/nfl-stats-by-season.csv)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format: csv, json or text")
	cmd.Flags().StringVar(&flagSort, "sort", "", "Column to sort rows by, prefix with - for descending (e.g., -SRS)")
	cmd.Flags().BoolVar(&flagContinueOnError, "continue-on-error", false, "Skip seasons that fail instead of aborting")
	cmd.Flags().BoolVar(&flagBrowser, "browser", false, "Render pages with headless Chrome")
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape and combine a range of seasons once",
		RunE:  runScrape,
	}
	addRunFlags(cmd)
	return cmd
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Scrape on a cron schedule until interrupted",
		RunE:  runSchedule,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&flagCron, "cron", "", "Cron expression (default from config)")
	cmd.Flags().BoolVar(&flagRunNow, "run-now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve combined seasons over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Serve a CSV dataset instead of Postgres")
	return cmd
}

// loadConfig reads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("from") {
		cfg.Seasons.From = flagFrom
	}
	if flags.Changed("to") {
		cfg.Seasons.To = flagTo
	}
	if flags.Changed("continue-on-error") {
		cfg.Seasons.ContinueOnError = flagContinueOnError
	}
	if flags.Changed("browser") {
		cfg.Source.Browser = flagBrowser
	}
	if flags.Changed("names") {
		cfg.Names = flagNames
	}
	if flags.Changed("dsn") {
		cfg.Postgres.DSN = flagDSN
	}
	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Changed("out") && flagOut != "-" {
		cfg.Output.Dir, cfg.Output.File = filepath.Dir(flagOut), filepath.Base(flagOut)
	}
	if flags.Changed("cron") {
		cfg.Schedule.Cron = flagCron
	}
	if flags.Changed("addr") {
		cfg.API.Addr = flagAddr
	}
	if flagVerbose {
		cfg.Log.Level = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(level, w)
	logger.SetDefault(log)
	return log
}

func newFetcher(cfg *config.Config) scraper.Fetcher {
	var f scraper.Fetcher = scraper.New(cfg.Source.UserAgent, cfg.Source.Timeout)
	if cfg.Source.Browser {
		f = scraper.NewBrowser(cfg.Source.UserAgent, cfg.Source.Timeout)
	}
	if cfg.Source.CacheTTL > 0 {
		f = scraper.NewCache(f, cfg.Source.CacheTTL)
	}
	return f
}

// runScrape is the scrape command logic
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())

	return scrapeOnce(cmd.Context(), cfg, newFetcher(cfg), log, logger.NewMetrics(), cmd.OutOrStdout())
}

// scrapeOnce runs every configured season and writes the dataset
func scrapeOnce(ctx context.Context, cfg *config.Config, fetcher scraper.Fetcher, log *logger.Logger, metrics *logger.Metrics, stdout io.Writer) error {
	format, err := ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	var sink runner.Sink
	if cfg.Postgres.DSN != "" {
		db, err := store.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close() // nolint:errcheck
		sink = db
	}

	r, err := runner.New(fetcher, cfg, sink, log, metrics)
	if err != nil {
		return err
	}

	report, err := r.Run(ctx, cfg.SeasonList())
	if err != nil {
		return err
	}

	rows, err := sortRows(report.Dataset, SortOrder(flagSort))
	if err != nil {
		return err
	}
	result := NewOutputResult(report, rows)

	write := func(w io.Writer) error {
		return WriteOutput(w, result, format, flagVerbose)
	}
	if flagOut == "-" {
		if err := write(stdout); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		files, err := storage.New(cfg.Output.Dir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		path, err := files.Save(cfg.Output.File, write)
		if err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		log.Info("dataset written", logger.Fields{"path": path, "rows": result.RowCount, "format": string(format)})
	}

	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d seasons failed: %w", len(report.Failures), len(report.Failures)+len(report.Seasons), errPartial)
	}
	return nil
}

// runSchedule repeats scrapeOnce on the configured cron schedule
func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule.Cron, err)
	}
	log := newLogger(cfg, cmd.ErrOrStderr())
	metrics := logger.NewMetrics()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One fetcher for every run, so a configured page cache carries over
	fetcher := newFetcher(cfg)
	job := func() {
		scheduledRun(ctx, cfg, fetcher, log, metrics, cmd.OutOrStdout())
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule.Cron, job); err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}

	if flagRunNow {
		job()
	}

	c.Start()
	log.Info("schedule started", logger.Fields{"cron": cfg.Schedule.Cron})

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("schedule stopped", logger.Fields{"metrics": metrics.GetSnapshot()})
	return nil
}

// scheduledRun is one cron tick: it drops expired cached pages, then scrapes
// and counts the outcome
func scheduledRun(ctx context.Context, cfg *config.Config, fetcher scraper.Fetcher, log *logger.Logger, metrics *logger.Metrics, stdout io.Writer) {
	if cache, ok := fetcher.(*scraper.Cache); ok {
		removed := cache.CleanExpired()
		metrics.SetGauge("cache.pages", float64(cache.Size()))
		if removed > 0 {
			log.Info("expired pages dropped", logger.Fields{"removed": removed, "cached": cache.Size()})
		}
	}

	err := scrapeOnce(ctx, cfg, fetcher, log, metrics, stdout)
	switch {
	case err == nil:
		metrics.IncrCounter("runs.ok")
	case errors.Is(err, errPartial):
		metrics.IncrCounter("runs.partial")
		log.Warn("scheduled run partially failed", logger.Fields{"error": err.Error()})
	default:
		metrics.IncrCounter("runs.failed")
		log.Error("scheduled run failed", nil, err)
	}
}

// runServe starts the HTTP API over Postgres or a dataset file
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	return api.New(src, log, logger.NewMetrics()).Run(ctx, cfg.API.Addr)
}

// openSource prefers --from-file, then Postgres, then the configured output file
func openSource(ctx context.Context, cfg *config.Config) (api.Source, func(), error) {
	if flagFromFile == "" && cfg.Postgres.DSN != "" {
		db, err := store.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening store: %w", err)
		}
		return db, func() { db.Close() }, nil // nolint:errcheck
	}

	files, err := storage.New(cfg.Output.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	name := cfg.Output.File
	if flagFromFile != "" {
		name, err = filepath.Abs(flagFromFile)
		if err != nil {
			return nil, nil, err
		}
	}

	data, err := files.LoadCSV(name)
	if err != nil {
		return nil, nil, err
	}
	src, err := api.NewTableSource(data, cfg.Layout().Key, season.SeasonColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return src, func() {}, nil
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errPartial):
		fmt.Fprintf(stderr, "Warning: %v\n", err)
		return ExitPartial
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
