package spectrum

import (
	"fmt"

	"fluxpost/internal/results"
)

// Energy region cuts in MeV. Bins with mid energy below ThermalCut count as
// thermal, between ThermalCut and FastCut as epithermal, at or above FastCut
// as fast.
const (
	ThermalCut = 0.625
	FastCut    = 1.0
)

// Regions holds the three-way partition of total flux by bin mid energy.
// Fractions are zero when the total flux is zero (recorded as a warning on
// the spectrum rather than emitting non-finite values).
type Regions struct {
	Thermal    float64
	Epithermal float64
	Fast       float64

	ThermalFrac    float64
	EpithermalFrac float64
	FastFrac       float64
}

// Spectrum is the fully converted flux spectrum of one detector. All slices
// are positionally aligned with Bins.
type Spectrum struct {
	Detector string
	Bins     []results.Bin
	Norm     Norm

	Flux        []float64 // n/cm2/s per bin
	FluxErr     []float64 // absolute error on Flux
	Width       []float64 // bin width, MeV
	FluxPerE    []float64 // n/cm2/s/MeV
	FluxPerEErr []float64 // absolute error on FluxPerE

	Total    float64
	Regions  Regions
	Warnings []string
}

// Convert applies the normalization factor to a detector tally, producing
// the physical flux spectrum.
//
// Per bin: flux = score * factor, fluxPerE = flux / (upper - lower), and
// absolute errors are the relative tally errors scaled by the respective
// values. A non-positive bin width is a data defect: the bin keeps its flux
// but its flux-per-energy is zeroed and a warning is recorded.
func Convert(d *results.DetectorTally, n Norm) *Spectrum {
	count := len(d.Bins)
	s := &Spectrum{
		Detector:    d.Name,
		Bins:        d.Bins,
		Norm:        n,
		Flux:        make([]float64, count),
		FluxErr:     make([]float64, count),
		Width:       make([]float64, count),
		FluxPerE:    make([]float64, count),
		FluxPerEErr: make([]float64, count),
	}

	for i, b := range d.Bins {
		flux := b.Score * n.Factor
		width := b.Upper - b.Lower

		s.Flux[i] = flux
		s.FluxErr[i] = b.RelErr * flux
		s.Width[i] = width
		if width > 0 {
			s.FluxPerE[i] = flux / width
			s.FluxPerEErr[i] = b.RelErr * s.FluxPerE[i]
		} else {
			s.Warnings = append(s.Warnings,
				fmt.Sprintf("bin %d has non-positive width %g MeV; flux per unit energy undefined", i, width))
		}
		s.Total += flux

		switch {
		case b.Mid < ThermalCut:
			s.Regions.Thermal += flux
		case b.Mid < FastCut:
			s.Regions.Epithermal += flux
		default:
			s.Regions.Fast += flux
		}
	}

	if s.Total != 0 {
		s.Regions.ThermalFrac = s.Regions.Thermal / s.Total
		s.Regions.EpithermalFrac = s.Regions.Epithermal / s.Total
		s.Regions.FastFrac = s.Regions.Fast / s.Total
	} else if count > 0 {
		s.Warnings = append(s.Warnings, "total flux is zero; region fractions undefined")
	}

	return s
}
