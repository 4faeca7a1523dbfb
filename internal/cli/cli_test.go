package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/nfl-season-stats/internal/config"
	"github.com/pfrederiksen/nfl-season-stats/internal/logger"
	"github.com/pfrederiksen/nfl-season-stats/internal/scraper"
)

var (
	standingsHeader = []string{"Tm", "W", "L", "W-L%", "PF", "PA", "PD", "MoV", "SoS", "SRS", "OSRS", "DSRS"}
	statsHeader     = []string{"Rk", "Tm", "G", "PF", "Yds", "Ply", "Y/P", "TO", "FL", "1stD", "Cmp", "Att"}
)

func htmlTable(id string, header []string, body, foot [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<table id=%q><thead><tr>", id)
	for _, h := range header {
		fmt.Fprintf(&b, "<th>%s</th>", h)
	}
	b.WriteString("</tr></thead><tbody>")
	writeRows := func(rows [][]string) {
		for _, r := range rows {
			if len(r) == 1 {
				fmt.Fprintf(&b, `<tr class="onecell"><td colspan="%d">%s</td></tr>`, len(header), r[0])
				continue
			}
			b.WriteString("<tr>")
			for _, c := range r {
				fmt.Fprintf(&b, "<td>%s</td>", c)
			}
			b.WriteString("</tr>")
		}
	}
	writeRows(body)
	b.WriteString("</tbody><tfoot>")
	writeRows(foot)
	b.WriteString("</tfoot></table>")
	return b.String()
}

// seasonSite serves a season page with both conference standings and a commented
// offense table, plus the opponent page. Seasons not listed return 404.
func seasonSite(t *testing.T, seasons ...int) *httptest.Server {
	t.Helper()

	afc := htmlTable("AFC", standingsHeader, [][]string{
		{"AFC East"},
		{"Buffalo Bills*", "11", "6", ".647", "483", "289", "194", "11.4", "-1.0", "10.4", "5.1", "5.3"},
		{"Oakland Raiders", "10", "7", ".588", "374", "439", "-65", "-3.8", "0.7", "-3.1", "-0.5", "-2.6"},
	}, nil)
	nfc := htmlTable("NFC", standingsHeader, [][]string{
		{"NFC East"},
		{"Dallas Cowboys+", "12", "5", ".706", "530", "358", "172", "10.1", "-1.2", "8.9", "6.5", "2.4"},
		{"Washington Football Team", "7", "10", ".412", "335", "434", "-99", "-5.8", "0.7", "-5.1", "-2.5", "-2.6"},
	}, nil)
	offense := htmlTable("team_stats", statsHeader, [][]string{
		{"1", "Dallas Cowboys", "17", "530", "7033", "1165", "6.0", "25", "11", "412", "444", "647"},
		{"2", "Buffalo Bills", "17", "483", "6451", "1129", "5.7", "23", "8", "387", "409", "646"},
		{"3", "Las Vegas Raiders", "17", "374", "6226", "1084", "5.7", "24", "10", "358", "428", "627"},
		{"4", "Washington Football Team", "17", "335", "5480", "1046", "5.2", "24", "9", "327", "361", "554"},
	}, [][]string{
		{"", "Avg Team", "17", "390", "5939", "1063", "5.6", "22", "9", "344", "380", "584"},
	})
	defense := htmlTable("team_stats", statsHeader, [][]string{
		{"1", "Buffalo Bills", "17", "289", "4889", "1024", "4.8", "30", "11", "281", "335", "567"},
		{"2", "Dallas Cowboys", "17", "358", "5897", "1077", "5.5", "34", "8", "330", "379", "589"},
		{"3", "Las Vegas Raiders", "17", "439", "5742", "1035", "5.5", "15", "6", "334", "367", "542"},
		{"4", "Washington Football Team", "17", "434", "6012", "1078", "5.6", "23", "10", "350", "396", "590"},
	}, [][]string{
		{"", "League Total", "", "11675", "178173", "31896", "5.6", "661", "281", "10320", "11405", "17524"},
	})

	mux := http.NewServeMux()
	for _, year := range seasons {
		mux.HandleFunc(fmt.Sprintf("/years/%d/", year), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "<html><body>%s%s<div><!--%s--></div></body></html>", afc, nfc, offense)
		})
		mux.HandleFunc(fmt.Sprintf("/years/%d/opp.htm", year), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "<html><body>%s</body></html>", defense)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeSiteConfig(t *testing.T, srv *httptest.Server, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
source:
  standings_url: %[1]s/years/{season}/
  offense_url: %[1]s/years/{season}/
  defense_url: %[1]s/years/{season}/opp.htm
  timeout: 5s
output:
  dir: %[2]s
log:
  level: error
%[3]s`, srv.URL, dir, extra)

	path := filepath.Join(dir, "nfl-stats.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestScrape_WritesCSV(t *testing.T) {
	srv := seasonSite(t, 2021, 2020)
	cfgPath, dir := writeSiteConfig(t, srv, "")

	code, _, stderr := runCLI(t, "scrape", "--config", cfgPath, "--from", "2021", "--to", "2020")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	f, err := os.Open(filepath.Join(dir, "nfl-stats-by-season.csv"))
	if err != nil {
		t.Fatalf("dataset not written: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := []string{"Tm", "W", "L", "T", "W-L%", "PF", "PA", "PD", "MoV", "SoS", "SRS", "OSRS", "DSRS",
		"Rk", "G", "Yds", "Ply", "Y/P", "TO", "FL", "1stD", "Cmp", "Att", "Yds_opp", "Season"}
	if !slices.Equal(records[0], wantHeader) {
		t.Errorf("header = %v", records[0])
	}
	if len(records) != 9 {
		t.Fatalf("got %d rows, want 8 plus header", len(records)-1)
	}

	var teams []string
	for _, r := range records[1:5] {
		teams = append(teams, r[0])
	}
	want := []string{"Buffalo Bills", "Las Vegas Raiders", "Dallas Cowboys", "Washington Commanders"}
	if !slices.Equal(teams, want) {
		t.Errorf("teams = %v, want %v", teams, want)
	}

	dal := records[3]
	if dal[15] != "7033" || dal[23] != "5897" || dal[24] != "2021" || dal[3] != "" {
		t.Errorf("Dallas row = %v", dal)
	}
	if records[5][24] != "2020" {
		t.Errorf("second season rows should follow the first, got %v", records[5])
	}
}

func TestScrape_StdoutJSONSorted(t *testing.T) {
	srv := seasonSite(t, 2021)
	cfgPath, _ := writeSiteConfig(t, srv, "")

	code, stdout, stderr := runCLI(t, "scrape", "--config", cfgPath, "--from", "2021", "--to", "2021",
		"--out", "-", "--format", "json", "--sort", "-SRS")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"row_count": 4`) {
		t.Errorf("stdout missing row_count:\n%s", stdout)
	}
	if strings.Index(stdout, "Buffalo Bills") > strings.Index(stdout, "Dallas Cowboys") {
		t.Error("rows not sorted by SRS descending")
	}
}

func TestScrape_Partial(t *testing.T) {
	srv := seasonSite(t, 2021)
	cfgPath, dir := writeSiteConfig(t, srv, "")

	code, _, stderr := runCLI(t, "scrape", "--config", cfgPath, "--from", "2021", "--to", "2020", "--continue-on-error")
	if code != ExitPartial {
		t.Fatalf("exit code = %d, want %d; stderr: %s", code, ExitPartial, stderr)
	}
	if !strings.Contains(stderr, "1 of 2 seasons failed") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "nfl-stats-by-season.csv")); err != nil {
		t.Errorf("partial dataset not written: %v", err)
	}
}

func TestScrape_Errors(t *testing.T) {
	srv := seasonSite(t, 2021)
	cfgPath, _ := writeSiteConfig(t, srv, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"season fails", []string{"scrape", "--config", cfgPath, "--from", "2021", "--to", "2020"}, "season 2020"},
		{"bad format", []string{"scrape", "--config", cfgPath, "--format", "xml"}, "invalid output.format"},
		{"bad names", []string{"scrape", "--config", cfgPath, "--names", "V1999"}, "V1999"},
		{"missing config", []string{"scrape", "--config", "/nonexistent.yaml"}, "reading config"},
		{"bad sort", []string{"scrape", "--config", cfgPath, "--from", "2021", "--to", "2021", "--sort", "Elo"}, "cannot sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.want)
			}
		})
	}
}

func TestSchedule_InvalidCron(t *testing.T) {
	srv := seasonSite(t)
	cfgPath, _ := writeSiteConfig(t, srv, "")

	code, _, stderr := runCLI(t, "schedule", "--config", cfgPath, "--cron", "every tuesday")
	if code != ExitError || !strings.Contains(stderr, "invalid cron expression") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestScheduledRun_DropsExpiredPages(t *testing.T) {
	srv := seasonSite(t, 2021)
	cfgPath, _ := writeSiteConfig(t, srv, "")

	NewRootCmd() // reset flag values left by earlier commands
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Seasons.From, cfg.Seasons.To = 2021, 2021
	cfg.Source.CacheTTL = time.Millisecond

	fetcher := newFetcher(cfg)
	cache, ok := fetcher.(*scraper.Cache)
	if !ok {
		t.Fatalf("fetcher = %T, want *scraper.Cache", fetcher)
	}

	var logs bytes.Buffer
	log := logger.New(logger.LevelInfo, &logs)
	metrics := logger.NewMetrics()

	scheduledRun(context.Background(), cfg, fetcher, log, metrics, io.Discard)
	if cache.Size() != 2 {
		t.Errorf("cached %d pages after first run, want 2", cache.Size())
	}
	if strings.Contains(logs.String(), "expired pages dropped") {
		t.Error("first run should find nothing to drop")
	}

	time.Sleep(5 * time.Millisecond)
	scheduledRun(context.Background(), cfg, fetcher, log, metrics, io.Discard)
	if !strings.Contains(logs.String(), `"removed":2`) {
		t.Errorf("second run did not drop expired pages, logs:\n%s", logs.String())
	}

	counters := metrics.GetSnapshot()["counters"].(map[string]int64)
	if counters["runs.ok"] != 2 {
		t.Errorf("runs.ok = %d, want 2", counters["runs.ok"])
	}
}

func TestServe_MissingDataset(t *testing.T) {
	srv := seasonSite(t)
	cfgPath, _ := writeSiteConfig(t, srv, "")

	code, _, stderr := runCLI(t, "serve", "--config", cfgPath, "--from-file", filepath.Join(t.TempDir(), "missing.csv"))
	if code != ExitError || !strings.Contains(stderr, "opening dataset") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}
