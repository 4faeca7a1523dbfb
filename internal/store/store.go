// Package store persists combined seasons in PostgreSQL.
//
// Each team season is one row of team_seasons keyed by (season, team). The
// statistics are kept as a JSON object in column order, so a layout change does
// not need a migration. Saving a season replaces all of its rows in one
// transaction.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

const schema = `
CREATE TABLE IF NOT EXISTS team_seasons (
	season     INT         NOT NULL,
	team       TEXT        NOT NULL,
	position   INT         NOT NULL,
	run_id     UUID        NOT NULL,
	stats      JSON        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (season, team)
);

CREATE INDEX IF NOT EXISTS idx_team_seasons_run_id ON team_seasons(run_id);
`

// Store wraps a Postgres connection
type Store struct {
	db *sql.DB
}

// Open connects to dsn, verifies the connection and creates the schema
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close() // nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// SaveSeason replaces the stored rows of year with the rows of t. t must be indexed
// by team.
func (s *Store) SaveSeason(ctx context.Context, runID string, year int, t *table.Table) error {
	rows, err := teamRows(t)
	if err != nil {
		return fmt.Errorf("season %d: %w", year, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_seasons WHERE season = $1`, year); err != nil {
		return fmt.Errorf("clearing season %d: %w", year, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO team_seasons (season, team, position, run_id, stats)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, year, r.team, i, runID, string(r.stats)); err != nil {
			return fmt.Errorf("inserting %s %d: %w", r.team, year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing season %d: %w", year, err)
	}
	return nil
}

// Seasons lists the stored seasons, newest first
func (s *Store) Seasons(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT season FROM team_seasons ORDER BY season DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("scanning season: %w", err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// SeasonRows returns the stored team rows of the given seasons, newest season
// first and teams in the order they were saved
func (s *Store) SeasonRows(ctx context.Context, seasons ...int) ([]json.RawMessage, error) {
	ids := make([]int64, len(seasons))
	for i, season := range seasons {
		ids[i] = int64(season)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stats FROM team_seasons
		WHERE season = ANY($1)
		ORDER BY season DESC, position`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying season rows: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var stats []byte
		if err := rows.Scan(&stats); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		out = append(out, json.RawMessage(stats))
	}
	return out, rows.Err()
}

// TeamSeason returns one stored team row. ok is false when the team has no row for
// season.
func (s *Store) TeamSeason(ctx context.Context, season int, team string) (stats json.RawMessage, ok bool, err error) {
	var raw []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT stats FROM team_seasons WHERE season = $1 AND team = $2`, season, team).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying %s %d: %w", team, season, err)
	}
	return json.RawMessage(raw), true, nil
}

type teamRow struct {
	team  string
	stats []byte
}

func teamRows(t *table.Table) ([]teamRow, error) {
	if t.Key() == "" {
		return nil, errors.New("table is not indexed by team")
	}

	out := make([]teamRow, 0, t.Len())
	for _, r := range t.Rows() {
		stats, err := r.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", r.Key(), err)
		}
		out = append(out, teamRow{team: r.Key(), stats: stats})
	}
	return out, nil
}
