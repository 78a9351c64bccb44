package results

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Bin is one energy bin of a detector tally. Lower/Upper/Mid are in MeV,
// Score is the raw tally score (not yet normalized to physical flux) and
// RelErr its relative statistical error.
type Bin struct {
	Lower  float64
	Upper  float64
	Mid    float64
	Score  float64
	RelErr float64
}

// DetectorTally is the ordered, energy-ascending bin sequence of one
// detector. Indices stay positionally aligned with every array derived
// from the tally downstream.
type DetectorTally struct {
	Name string
	Bins []Bin
}

// Energies returns the per-bin mid energies, aligned with Bins.
func (d *DetectorTally) Energies() []float64 {
	out := make([]float64, len(d.Bins))
	for i, b := range d.Bins {
		out[i] = b.Mid
	}
	return out
}

// LoadDetector reads a detector tally file and assembles the tally for the
// named detector. The file must contain the tally matrix NAME (score in the
// second-to-last column, relative error in the last) and its energy grid
// NAME+"E" with (lower, upper, mid) rows.
func LoadDetector(path, name string) (*DetectorTally, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detector file %s: %w", path, err)
	}
	defer f.Close()

	blocks, err := parseBlocks(f)
	if err != nil {
		return nil, fmt.Errorf("parse detector file %s: %w", path, err)
	}

	var tally, grid [][]float64
	for _, b := range blocks {
		switch b.name {
		case name:
			if tally == nil {
				tally = b.rows
			}
		case name + "E":
			if grid == nil {
				grid = b.rows
			}
		}
	}
	if tally == nil {
		return nil, fmt.Errorf("detector %s not found in %s", name, path)
	}
	if grid == nil {
		return nil, fmt.Errorf("detector %s: energy grid %sE missing in %s", name, name, path)
	}
	if len(tally) != len(grid) {
		return nil, fmt.Errorf("detector %s: %d tally rows but %d energy rows", name, len(tally), len(grid))
	}

	bins := make([]Bin, len(tally))
	for i, row := range tally {
		if len(row) < 2 {
			return nil, fmt.Errorf("detector %s: tally row %d has %d columns, need at least 2", name, i+1, len(row))
		}
		g := grid[i]
		if len(g) < 3 {
			return nil, fmt.Errorf("detector %s: energy row %d has %d columns, need 3", name, i+1, len(g))
		}
		bins[i] = Bin{
			Lower:  g[0],
			Upper:  g[1],
			Mid:    g[2],
			Score:  row[len(row)-2],
			RelErr: row[len(row)-1],
		}
	}
	sort.SliceStable(bins, func(a, b int) bool { return bins[a].Mid < bins[b].Mid })

	return &DetectorTally{Name: name, Bins: bins}, nil
}

// DetectorNames lists the detectors present in a tally file, in file order.
// A block counts as a detector when a matching energy grid block exists.
func DetectorNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detector file %s: %w", path, err)
	}
	defer f.Close()

	blocks, err := parseBlocks(f)
	if err != nil {
		return nil, fmt.Errorf("parse detector file %s: %w", path, err)
	}

	grids := make(map[string]bool)
	for _, b := range blocks {
		if n, ok := strings.CutSuffix(b.name, "E"); ok && n != "" {
			grids[n] = true
		}
	}
	var names []string
	seen := make(map[string]bool)
	for _, b := range blocks {
		if grids[b.name] && !seen[b.name] {
			names = append(names, b.name)
			seen[b.name] = true
		}
	}
	return names, nil
}
