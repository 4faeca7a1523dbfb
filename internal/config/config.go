// Package config loads the nfl-stats YAML configuration.
//
// Every field has a default matching pro-football-reference.com, so the file only
// needs the values that differ. Command-line flags override the loaded values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/nfl-season-stats/internal/logger"
	"github.com/pfrederiksen/nfl-season-stats/internal/season"
	"github.com/pfrederiksen/nfl-season-stats/internal/teams"
)

// SeasonPlaceholder is replaced by the season year in source URLs
const SeasonPlaceholder = "{season}"

type Config struct {
	Source          SourceConfig   `yaml:"source"`
	Seasons         SeasonsConfig  `yaml:"seasons"`
	Names           string         `yaml:"names"`
	LayoutOverrides LayoutConfig   `yaml:"layout"`
	Output          OutputConfig   `yaml:"output"`
	Postgres        PostgresConfig `yaml:"postgres"`
	Log             LogConfig      `yaml:"log"`
	Schedule        ScheduleConfig `yaml:"schedule"`
	API             APIConfig      `yaml:"api"`
}

type SourceConfig struct {
	StandingsURL    string        `yaml:"standings_url"`
	StandingsTables []string      `yaml:"standings_tables"` // table ids; empty means every table on the page
	OffenseURL      string        `yaml:"offense_url"`
	OffenseTable    string        `yaml:"offense_table"`
	DefenseURL      string        `yaml:"defense_url"` // empty skips the opponent join
	DefenseTable    string        `yaml:"defense_table"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	Browser         bool          `yaml:"browser"`   // render pages with headless Chrome
	CacheTTL        time.Duration `yaml:"cache_ttl"` // keep fetched pages between scheduled runs; 0 disables
}

type SeasonsConfig struct {
	From            int  `yaml:"from"`
	To              int  `yaml:"to"`
	ContinueOnError bool `yaml:"continue_on_error"`
}

type LayoutConfig struct {
	StatsColumns []string `yaml:"stats_columns"`
	Final        []string `yaml:"final"`
	Optional     []string `yaml:"optional"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			StandingsURL:    "https://www.pro-football-reference.com/years/{season}/",
			StandingsTables: []string{"AFC", "NFC"},
			OffenseURL:      "https://www.pro-football-reference.com/years/{season}/",
			OffenseTable:    "team_stats",
			DefenseURL:      "https://www.pro-football-reference.com/years/{season}/opp.htm",
			DefenseTable:    "team_stats",
			UserAgent:       "nfl-stats/1.0 (github.com/pfrederiksen/nfl-season-stats)",
			Timeout:         30 * time.Second,
		},
		Seasons: SeasonsConfig{
			From: 2021,
			To:   2003,
		},
		Names: teams.Default.Version,
		Output: OutputConfig{
			Dir:    "data",
			File:   "nfl-stats-by-season.csv",
			Format: "csv",
		},
		Log:      LogConfig{Level: "info"},
		Schedule: ScheduleConfig{Cron: "0 6 * * 2"},
		API:      APIConfig{Addr: ":8080"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.Source.StandingsURL == "" {
		return fmt.Errorf("source.standings_url is required")
	}
	if c.Source.OffenseURL == "" {
		return fmt.Errorf("source.offense_url is required")
	}
	if c.Seasons.From <= 0 || c.Seasons.To <= 0 {
		return fmt.Errorf("seasons.from and seasons.to must be positive")
	}
	if _, err := teams.Lookup(c.Names); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "csv", "json", "text":
	default:
		return fmt.Errorf("invalid output.format: %s (must be csv, json or text)", c.Output.Format)
	}
	return nil
}

// SeasonList returns the configured seasons, newest first
func (c *Config) SeasonList() []int {
	hi, lo := max(c.Seasons.From, c.Seasons.To), min(c.Seasons.From, c.Seasons.To)
	out := make([]int, 0, hi-lo+1)
	for s := hi; s >= lo; s-- {
		out = append(out, s)
	}
	return out
}

// Layout returns the pipeline layout with configured column overrides applied
func (c *Config) Layout() season.Layout {
	l := season.DefaultLayout()
	if len(c.LayoutOverrides.StatsColumns) > 0 {
		l.StatsColumns = c.LayoutOverrides.StatsColumns
	}
	if len(c.LayoutOverrides.Final) > 0 {
		l.Final = c.LayoutOverrides.Final
	}
	if c.LayoutOverrides.Optional != nil {
		l.Optional = c.LayoutOverrides.Optional
	}
	return l
}

// SeasonURL substitutes year into a source URL template
func SeasonURL(template string, year int) string {
	return strings.ReplaceAll(template, SeasonPlaceholder, strconv.Itoa(year))
}
