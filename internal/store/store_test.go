package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

func seasonTable(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords([]string{"Tm", "W", "T", "Season"}, rows).SetIndex("Tm")
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestTeamRows(t *testing.T) {
	tbl := seasonTable(t, []string{"Dallas Cowboys", "12", "", "2021"}, []string{"Detroit Lions", "3", "1", "2021"})

	rows, err := teamRows(tbl)
	if err != nil {
		t.Fatalf("teamRows() error: %v", err)
	}
	if len(rows) != 2 || rows[0].team != "Dallas Cowboys" || rows[1].team != "Detroit Lions" {
		t.Fatalf("teamRows() = %+v", rows)
	}
	want := `{"Tm":"Dallas Cowboys","W":12,"T":null,"Season":2021}`
	if string(rows[0].stats) != want {
		t.Errorf("stats = %s, want %s", rows[0].stats, want)
	}
}

func TestTeamRows_Unindexed(t *testing.T) {
	tbl := table.FromRecords([]string{"Tm"}, [][]string{{"Dallas Cowboys"}})
	if _, err := teamRows(tbl); err == nil {
		t.Error("teamRows() expected error for unindexed table")
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Error("Open() expected error for empty DSN")
	}
}

// Runs against a real database when NFL_STATS_TEST_DSN is set
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("NFL_STATS_TEST_DSN")
	if dsn == "" {
		t.Skip("NFL_STATS_TEST_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM team_seasons WHERE season IN (1990, 1991)`); err != nil {
		t.Fatal(err)
	}

	first := seasonTable(t, []string{"Dallas Cowboys", "7", "", "1990"}, []string{"Detroit Lions", "6", "", "1990"})
	if err := s.SaveSeason(ctx, uuid.NewString(), 1990, first); err != nil {
		t.Fatalf("SaveSeason() error: %v", err)
	}
	second := seasonTable(t, []string{"Buffalo Bills", "13", "", "1991"})
	if err := s.SaveSeason(ctx, uuid.NewString(), 1991, second); err != nil {
		t.Fatalf("SaveSeason() error: %v", err)
	}

	// Saving again replaces the season
	replaced := seasonTable(t, []string{"Detroit Lions", "6", "", "1990"})
	if err := s.SaveSeason(ctx, uuid.NewString(), 1990, replaced); err != nil {
		t.Fatalf("SaveSeason() error: %v", err)
	}

	rows, err := s.SeasonRows(ctx, 1990, 1991)
	if err != nil {
		t.Fatalf("SeasonRows() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("SeasonRows() returned %d rows, want 2", len(rows))
	}
	var got map[string]any
	if err := json.Unmarshal(rows[0], &got); err != nil {
		t.Fatal(err)
	}
	if got["Tm"] != "Buffalo Bills" {
		t.Errorf("first row = %v, want the 1991 Bills", got)
	}

	if _, ok, err := s.TeamSeason(ctx, 1990, "Dallas Cowboys"); err != nil || ok {
		t.Errorf("TeamSeason(replaced team) = %v, %v; want not found", ok, err)
	}
	if _, ok, err := s.TeamSeason(ctx, 1990, "Detroit Lions"); err != nil || !ok {
		t.Errorf("TeamSeason(Detroit Lions) = %v, %v; want found", ok, err)
	}
}
