// Package teams maps historical NFL franchise names to their current names.
//
// Relocated and renamed franchises appear under their old names in older seasons.
// A Map is a versioned value naming the current franchises and the renames that lead
// to them; it is passed into the season pipeline so that every join operates on
// current names.
package teams

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// DivisionLabels are the section headers the standings tables interleave with team rows
var DivisionLabels = []string{
	"AFC East", "AFC North", "AFC South", "AFC West",
	"NFC East", "NFC North", "NFC South", "NFC West",
}

// IsDivisionLabel reports whether name is exactly one of DivisionLabels
func IsDivisionLabel(name string) bool {
	return slices.Contains(DivisionLabels, name)
}

// Map is a canonicalization table from historical to current franchise names
type Map struct {
	Version    string
	Franchises []string
	Renames    map[string]string
}

// Canonical returns the current name for name. Names that are not historical are
// returned unchanged.
func (m Map) Canonical(name string) string {
	if current, ok := m.Renames[name]; ok {
		return current
	}
	return name
}

// IsFranchise reports whether name is one of the current franchises
func (m Map) IsFranchise(name string) bool {
	return slices.Contains(m.Franchises, name)
}

// Validate checks that every rename targets a current franchise
func (m Map) Validate() error {
	for from, to := range m.Renames {
		if !m.IsFranchise(to) {
			return fmt.Errorf("names %s: %q maps to %q which is not a current franchise", m.Version, from, to)
		}
	}
	return nil
}

// franchises2021 has Washington under its 2020-21 name
var franchises2021 = []string{
	"Arizona Cardinals", "Atlanta Falcons", "Baltimore Ravens", "Buffalo Bills",
	"Carolina Panthers", "Chicago Bears", "Cincinnati Bengals", "Cleveland Browns",
	"Dallas Cowboys", "Denver Broncos", "Detroit Lions", "Green Bay Packers",
	"Houston Texans", "Indianapolis Colts", "Jacksonville Jaguars", "Kansas City Chiefs",
	"Las Vegas Raiders", "Los Angeles Chargers", "Los Angeles Rams", "Miami Dolphins",
	"Minnesota Vikings", "New England Patriots", "New Orleans Saints", "New York Giants",
	"New York Jets", "Philadelphia Eagles", "Pittsburgh Steelers", "San Francisco 49ers",
	"Seattle Seahawks", "Tampa Bay Buccaneers", "Tennessee Titans", "Washington Football Team",
}

var relocations = map[string]string{
	"San Diego Chargers":  "Los Angeles Chargers",
	"Oakland Raiders":     "Las Vegas Raiders",
	"Los Angeles Raiders": "Las Vegas Raiders",
	"St. Louis Rams":      "Los Angeles Rams",
	"Houston Oilers":      "Tennessee Titans",
	"Tennessee Oilers":    "Tennessee Titans",
	"Phoenix Cardinals":   "Arizona Cardinals",
	"St. Louis Cardinals": "Arizona Cardinals",
	"Baltimore Colts":     "Indianapolis Colts",
	"Boston Patriots":     "New England Patriots",
}

// V2021 names Washington "Washington Football Team"
var V2021 = Map{
	Version:    "V2021",
	Franchises: franchises2021,
	Renames: withRenames(relocations, map[string]string{
		"Washington Redskins": "Washington Football Team",
	}),
}

// V2022 names Washington "Washington Commanders"
var V2022 = Map{
	Version:    "V2022",
	Franchises: replace(franchises2021, "Washington Football Team", "Washington Commanders"),
	Renames: withRenames(relocations, map[string]string{
		"Washington Redskins":      "Washington Commanders",
		"Washington Football Team": "Washington Commanders",
	}),
}

// Default is the map used when no version is configured
var Default = V2022

var versions = map[string]Map{
	V2021.Version: V2021,
	V2022.Version: V2022,
}

// Lookup returns the map with the given version, matched case-insensitively.
// A map whose renames leave the franchise set is an error.
func Lookup(version string) (Map, error) {
	if version == "" {
		return Default, Default.Validate()
	}
	for v, m := range versions {
		if strings.EqualFold(v, version) {
			if err := m.Validate(); err != nil {
				return Map{}, err
			}
			return m, nil
		}
	}
	return Map{}, fmt.Errorf("unknown team name map %q (available: %s)", version, strings.Join(Versions(), ", "))
}

// Versions lists the available map versions
func Versions() []string {
	out := make([]string, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func withRenames(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func replace(names []string, from, to string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n == from {
			n = to
		}
		out[i] = n
	}
	return out
}
