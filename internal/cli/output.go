package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/nfl-season-stats/internal/runner"
	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// ParseFormat validates a format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'csv', 'json' or 'text')", s)
	}
}

// SeasonFailure is a season left out of the dataset
type SeasonFailure struct {
	Season int    `json:"season"`
	Error  string `json:"error"`
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Seasons     []int           `json:"seasons"`
	Failed      []SeasonFailure `json:"failed,omitempty"`
	RowCount    int             `json:"row_count"`
	Rows        *table.Table    `json:"rows"`
}

// NewOutputResult builds the output of a finished run
func NewOutputResult(report *runner.Report, rows *table.Table) *OutputResult {
	result := &OutputResult{
		RunID:       report.RunID,
		GeneratedAt: time.Now().UTC(),
		Seasons:     report.Seasons,
		Rows:        rows,
	}
	if rows != nil {
		result.RowCount = rows.Len()
	}
	for _, f := range report.Failures {
		result.Failed = append(result.Failed, SeasonFailure{Season: f.Season, Error: f.Err.Error()})
	}
	return result
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeCSV outputs the rows with a header line. Nulls are empty fields.
func writeCSV(w io.Writer, result *OutputResult) error {
	if result.Rows == nil {
		return fmt.Errorf("no rows to write")
	}
	header, records := result.Rows.Records()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as an aligned, human-readable table
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.RowCount == 0 {
		fmt.Fprintln(w, "No rows combined.")
		return nil
	}

	header, records := result.Rows.Records()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, rec := range records {
		for i, v := range rec {
			if v == "" {
				rec[i] = "-"
			}
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d rows across %d seasons\n", result.RowCount, len(result.Seasons))
	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "Failed: %d seasons\n", len(result.Failed))
		if verbose {
			for _, f := range result.Failed {
				fmt.Fprintf(w, "  %d: %s\n", f.Season, f.Error)
			}
		}
	}
	if verbose {
		fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	}

	return nil
}
