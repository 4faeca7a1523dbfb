// Package runner drives the season pipeline across a range of seasons.
//
// For each season it fetches the standings, offense and defense pages, selects the
// configured tables, runs the season pipeline and collects the combined rows. A
// failing season either aborts the run or is recorded and skipped, depending on
// configuration.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/nfl-season-stats/internal/config"
	"github.com/pfrederiksen/nfl-season-stats/internal/logger"
	"github.com/pfrederiksen/nfl-season-stats/internal/scraper"
	"github.com/pfrederiksen/nfl-season-stats/internal/season"
	"github.com/pfrederiksen/nfl-season-stats/internal/table"
	"github.com/pfrederiksen/nfl-season-stats/internal/teams"
)

// Sink receives each season's combined table as soon as it is built
type Sink interface {
	SaveSeason(ctx context.Context, runID string, year int, t *table.Table) error
}

// Runner fetches and combines seasons
type Runner struct {
	fetcher scraper.Fetcher
	cfg     *config.Config
	names   teams.Map
	layout  season.Layout
	sink    Sink
	log     *logger.Logger
	metrics *logger.Metrics
}

// Failure records a season that could not be combined
type Failure struct {
	Season int
	Err    error
}

// Report is the outcome of a run
type Report struct {
	RunID    string
	Dataset  *table.Table
	Seasons  []int
	Failures []Failure
	Duration time.Duration
}

// New creates a Runner. sink may be nil.
func New(fetcher scraper.Fetcher, cfg *config.Config, sink Sink, log *logger.Logger, metrics *logger.Metrics) (*Runner, error) {
	names, err := teams.Lookup(cfg.Names)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = logger.NewMetrics()
	}
	return &Runner{
		fetcher: fetcher,
		cfg:     cfg,
		names:   names,
		layout:  cfg.Layout(),
		sink:    sink,
		log:     log,
		metrics: metrics,
	}, nil
}

// Run combines every season in seasons, in order, and stacks the results. Unless
// continue_on_error is set, the first failing season aborts the run.
func (r *Runner) Run(ctx context.Context, seasons []int) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	log := r.log.With(logger.Fields{"run_id": report.RunID})

	log.Info("run started", logger.Fields{"seasons": len(seasons), "names": r.names.Version})

	var combined []*table.Table
	for _, year := range seasons {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		t, err := r.Season(ctx, year)
		if err == nil && r.sink != nil {
			if serr := r.sink.SaveSeason(ctx, report.RunID, year, t); serr != nil {
				err = fmt.Errorf("saving season: %w", serr)
			}
		}
		if err != nil {
			r.metrics.IncrCounter("seasons.failed")
			report.Failures = append(report.Failures, Failure{Season: year, Err: err})
			if !r.cfg.Seasons.ContinueOnError {
				log.Error("season failed, aborting", logger.Fields{"season": year}, err)
				return report, fmt.Errorf("season %d: %w", year, err)
			}
			log.Warn("season failed, skipping", logger.Fields{"season": year, "error": err.Error()})
			continue
		}

		r.metrics.IncrCounter("seasons.ok")
		log.Info("season combined", logger.Fields{"season": year, "teams": t.Len()})
		report.Seasons = append(report.Seasons, year)
		combined = append(combined, t)
	}

	if len(combined) == 0 {
		return report, fmt.Errorf("no season could be combined: %w", season.ErrEmptyResult)
	}

	dataset, err := table.Concat(combined...)
	if err != nil {
		return report, fmt.Errorf("stacking seasons: %w", err)
	}
	report.Dataset = dataset
	report.Duration = time.Since(start)

	r.metrics.SetGauge("dataset.rows", float64(dataset.Len()))
	r.metrics.RecordTiming("run", report.Duration)
	log.Info("run finished", logger.Fields{
		"rows":     dataset.Len(),
		"failed":   len(report.Failures),
		"duration": report.Duration.String(),
	})

	return report, nil
}

// Season fetches and combines a single season
func (r *Runner) Season(ctx context.Context, year int) (*table.Table, error) {
	src := r.cfg.Source
	pages := newPageSet(r, year)

	standingsTables, err := pages.tables(ctx, src.StandingsURL, src.StandingsTables...)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	standings, err := season.Standings(standingsTables, r.names, r.layout)
	if err != nil {
		return nil, err
	}

	offense, err := pages.table(ctx, src.OffenseURL, src.OffenseTable)
	if err != nil {
		return nil, fmt.Errorf("offense: %w", err)
	}

	var defense *table.Table
	if src.DefenseURL != "" {
		defense, err = pages.table(ctx, src.DefenseURL, src.DefenseTable)
		if err != nil {
			return nil, fmt.Errorf("defense: %w", err)
		}
	}

	stats, err := season.Stats(offense, defense, r.names, r.layout)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := season.Combine(standings, stats, year, r.layout)
	r.metrics.RecordTiming("combine", time.Since(start))
	return out, err
}

// pageSet fetches each distinct page of one season once
type pageSet struct {
	r     *Runner
	year  int
	pages map[string][]*table.Table
}

func newPageSet(r *Runner, year int) *pageSet {
	return &pageSet{r: r, year: year, pages: make(map[string][]*table.Table)}
}

func (p *pageSet) tables(ctx context.Context, template string, ids ...string) ([]*table.Table, error) {
	url := config.SeasonURL(template, p.year)

	all, ok := p.pages[url]
	if !ok {
		start := time.Now()
		var err error
		all, err = p.r.fetcher.FetchTables(ctx, url)
		p.r.metrics.RecordTiming("fetch", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		p.r.log.Debug("page fetched", logger.Fields{"season": p.year, "url": url, "tables": len(all)})
		p.pages[url] = all
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w: no tables", url, season.ErrEmptyResult)
	}

	sel, err := scraper.Select(all, ids...)
	if errors.Is(err, scraper.ErrTableNotFound) {
		return nil, fmt.Errorf("%s: %w: %v", url, season.ErrSchemaMismatch, err)
	}
	return sel, err
}

// table returns the table with the given id, or the stacked tables of the page
// when id is empty
func (p *pageSet) table(ctx context.Context, template, id string) (*table.Table, error) {
	var ids []string
	if id != "" {
		ids = []string{id}
	}
	sel, err := p.tables(ctx, template, ids...)
	if err != nil {
		return nil, err
	}
	return table.Concat(sel...)
}
