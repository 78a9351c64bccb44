// Package report formats computed spectra and dose estimates into
// human-readable text, lipgloss-styled terminal summaries, and delimited
// CSV exports. It never mutates its inputs.
package report

import (
	"fmt"
	"io"
	"math"

	"fluxpost/internal/dose"
	"fluxpost/internal/spectrum"
)

// Scientific notation with 4 significant digits, fixed field width.
const fmtE = "%12.3E"

// TopN is how many dose contributors the text summary lists.
const TopN = 10

// Text writes the full plain-text summary: diagnostics first, then
// normalization provenance, region flux breakdown, dose totals, top
// contributors and the conversion-table dose breakdown.
func Text(w io.Writer, s *spectrum.Spectrum, r *dose.Report) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	for _, warn := range collectWarnings(s, r) {
		p("warning: %s\n", warn)
	}

	p("\nDetector %s: %d energy bins\n", s.Detector, len(s.Bins))
	p("Normalization: "+fmtE+" (from %s)\n", s.Norm.Factor, s.Norm.Source)

	p("\nFlux by energy region [n/cm2/s]\n")
	p("  %-12s"+fmtE, "thermal", s.Regions.Thermal)
	pfrac(p, s.Total, s.Regions.ThermalFrac)
	p("  %-12s"+fmtE, "epithermal", s.Regions.Epithermal)
	pfrac(p, s.Total, s.Regions.EpithermalFrac)
	p("  %-12s"+fmtE, "fast", s.Regions.Fast)
	pfrac(p, s.Total, s.Regions.FastFrac)
	p("  %-12s"+fmtE+"\n", "total", s.Total)

	p("\nDose rate [rem/h]\n")
	p("  %-12s"+fmtE+"\n", "thermal", r.Thermal)
	p("  %-12s"+fmtE+"\n", "epithermal", r.Epithermal)
	p("  %-12s"+fmtE+"\n", "fast", r.Fast)
	p("  %-12s"+fmtE+"\n", "total", r.Total)

	p("\nTop dose contributors\n")
	p("  %4s %14s %14s %9s\n", "bin", "E_mid [MeV]", "dose [rem/h]", "share")
	for i, c := range r.TopContributors {
		if i >= TopN {
			break
		}
		p("  %4d "+fmtE+"   "+fmtE, c.Bin, c.Energy, c.DoseRate)
		if r.Total != 0 {
			p("  %7.2f%%", 100*c.DoseRate/r.Total)
		} else {
			p("  %8s", "n/a")
		}
		p("\n")
	}

	p("\nDose by conversion-table interval [rem/h]\n")
	for _, tb := range r.ByTableBin {
		if math.IsInf(tb.Upper, 1) {
			p("  >= "+fmtE+"               "+fmtE+"\n", tb.Lower, tb.Dose)
			continue
		}
		p("  ["+fmtE+", "+fmtE+")"+fmtE+"\n", tb.Lower, tb.Upper, tb.Dose)
	}
	if r.DroppedBelowTable > 0 {
		p("  (%d bins below the first table breakpoint excluded)\n", r.DroppedBelowTable)
	}

	return err
}

func pfrac(p func(string, ...any), total, frac float64) {
	if total != 0 {
		p("  %7.2f%%\n", 100*frac)
	} else {
		p("  %8s\n", "n/a")
	}
}

// collectWarnings gathers the recovered diagnostics of both stages in
// pipeline order so they surface before the numbers.
func collectWarnings(s *spectrum.Spectrum, r *dose.Report) []string {
	var out []string
	out = append(out, s.Norm.Warnings...)
	out = append(out, s.Warnings...)
	if r != nil {
		out = append(out, r.Warnings...)
	}
	return out
}
