package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
	if got := s.Path("out.csv"); got != filepath.Join(dir, "out.csv") {
		t.Errorf("Path() = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := expandHome("~/.local/share/nfl-stats")
	if err != nil {
		t.Fatalf("expandHome() error: %v", err)
	}
	if want := filepath.Join(home, ".local/share/nfl-stats"); got != want {
		t.Errorf("expandHome() = %q, want %q", got, want)
	}

	if got, _ := expandHome("data"); got != "data" {
		t.Errorf("expandHome(data) = %q", got)
	}
}

func TestSaveAndLoadCSV(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	content := "Tm,W,T,Season\nDallas Cowboys,12,,2021\nDetroit Lions,3,1,2021\n"
	path, err := s.Save("stats.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if path != s.Path("stats.csv") {
		t.Errorf("Save() path = %q", path)
	}

	tbl, err := s.LoadCSV("stats.csv")
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}
	if !slices.Equal(tbl.Columns(), []string{"Tm", "W", "T", "Season"}) {
		t.Errorf("Columns() = %v", tbl.Columns())
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if tbl.Row(0).Get("T").Valid {
		t.Error("empty CSV field should load as null")
	}
	if tbl.Row(1).Get("T").Value != "1" {
		t.Errorf("T = %q, want 1", tbl.Row(1).Get("T").Value)
	}
}

func TestSave_WriteErrorKeepsOldFile(t *testing.T) {
	s, _ := New(t.TempDir())

	if _, err := s.Save("stats.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "old")
		return err
	}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Save("stats.csv", func(w io.Writer) error {
		io.WriteString(w, "partial") // nolint:errcheck
		return errors.New("encoder failed")
	})
	if err == nil {
		t.Fatal("Save() expected error")
	}

	data, _ := os.ReadFile(s.Path("stats.csv"))
	if string(data) != "old" {
		t.Errorf("file = %q, want old content", data)
	}

	entries, _ := os.ReadDir(s.dataDir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	s, _ := New(t.TempDir())

	if _, err := s.LoadCSV("missing.csv"); err == nil {
		t.Error("LoadCSV(missing) expected error")
	}

	os.WriteFile(s.Path("empty.csv"), nil, 0644) // nolint:errcheck
	if _, err := s.LoadCSV("empty.csv"); err == nil {
		t.Error("LoadCSV(empty) expected error")
	}
}
