package dose

import (
	"fmt"
	"math"
	"sort"

	"fluxpost/internal/spectrum"
)

// Contribution is one bin's share of the total dose rate, used for
// top-contributor reporting.
type Contribution struct {
	Bin      int // original bin index
	Energy   float64
	DoseRate float64
}

// TableBin is the dose summed over spectrum bins whose mid energy falls
// inside one conversion-table breakpoint interval [Lower, Upper). The last
// entry is the overflow bucket for energies at or above the final breakpoint
// (Upper is +Inf there).
type TableBin struct {
	Lower float64
	Upper float64
	Dose  float64
}

// Report is the full dose estimate for one spectrum. Coeff and DoseRate are
// positionally aligned with the spectrum bins.
type Report struct {
	Detector string

	Coeff    []float64 // (rem/h)/(n/cm2/s) per bin
	DoseRate []float64 // rem/h per bin

	Total      float64
	Thermal    float64
	Epithermal float64
	Fast       float64

	TopContributors []Contribution
	ByTableBin      []TableBin

	// DroppedBelowTable counts spectrum bins below the first table
	// breakpoint; they are excluded from ByTableBin (but not from Total).
	DroppedBelowTable int

	Warnings []string
}

// Estimate maps flux per bin to dose rate via shape-preserving cubic
// interpolation of the ANS-6.1.1-1977 table in log-energy / log-coefficient
// space. Extrapolation outside the table domain is permitted. Bin mid
// energies must be positive and strictly increasing.
func Estimate(s *spectrum.Spectrum) (*Report, error) {
	return EstimateWith(s, ANS611)
}

// EstimateWith runs the estimate against an explicit conversion table; the
// table must be strictly increasing in energy with positive coefficients.
func EstimateWith(s *spectrum.Spectrum, table []ConversionPoint) (*Report, error) {
	logE := make([]float64, len(table))
	logC := make([]float64, len(table))
	for i, p := range table {
		if p.Energy <= 0 || p.Coeff <= 0 {
			return nil, fmt.Errorf("conversion table point %d is not positive (E=%g, coeff=%g)", i, p.Energy, p.Coeff)
		}
		logE[i] = math.Log10(p.Energy)
		logC[i] = math.Log10(p.Coeff)
	}

	interp, err := newPCHIP(logE, logC)
	if err != nil {
		return nil, fmt.Errorf("fit conversion table: %w", err)
	}

	count := len(s.Bins)
	r := &Report{
		Detector: s.Detector,
		Coeff:    make([]float64, count),
		DoseRate: make([]float64, count),
	}

	prev := math.Inf(-1)
	for i, b := range s.Bins {
		if b.Mid <= 0 {
			return nil, fmt.Errorf("bin %d has non-positive mid energy %g MeV", i, b.Mid)
		}
		if b.Mid <= prev {
			return nil, fmt.Errorf("bin mid energies not strictly increasing at index %d", i)
		}
		prev = b.Mid

		coeff := math.Pow(10, interp.at(math.Log10(b.Mid)))
		rate := s.Flux[i] * coeff

		r.Coeff[i] = coeff
		r.DoseRate[i] = rate
		r.Total += rate

		switch {
		case b.Mid < spectrum.ThermalCut:
			r.Thermal += rate
		case b.Mid < spectrum.FastCut:
			r.Epithermal += rate
		default:
			r.Fast += rate
		}
	}

	r.TopContributors = topContributors(s, r.DoseRate)
	r.ByTableBin, r.DroppedBelowTable = binByTable(s, r.DoseRate, table)

	if r.Total == 0 && count > 0 {
		r.Warnings = append(r.Warnings, "total dose is zero; contribution percentages undefined")
	}

	return r, nil
}

func topContributors(s *spectrum.Spectrum, rates []float64) []Contribution {
	out := make([]Contribution, len(rates))
	for i, rate := range rates {
		out[i] = Contribution{Bin: i, Energy: s.Bins[i].Mid, DoseRate: rate}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DoseRate > out[b].DoseRate })
	return out
}

// binByTable sums dose over the conversion table's own breakpoint intervals.
// Bins below the first breakpoint are dropped (counted, not summed); bins at
// or above the last breakpoint land in the overflow bucket.
func binByTable(s *spectrum.Spectrum, rates []float64, table []ConversionPoint) ([]TableBin, int) {
	bins := make([]TableBin, 0, len(table))
	for k := 0; k < len(table)-1; k++ {
		bins = append(bins, TableBin{Lower: table[k].Energy, Upper: table[k+1].Energy})
	}
	bins = append(bins, TableBin{Lower: table[len(table)-1].Energy, Upper: math.Inf(1)})

	dropped := 0
	for i, b := range s.Bins {
		e := b.Mid
		if e < table[0].Energy {
			dropped++
			continue
		}
		k := sort.Search(len(table), func(j int) bool { return table[j].Energy > e }) - 1
		bins[k].Dose += rates[i]
	}
	return bins, dropped
}
