// Package spectrum converts raw detector tally scores into physical flux
// quantities: it resolves the scalar normalization factor from the summary
// result table and derives per-bin flux, flux-per-unit-energy and their
// absolute errors, plus thermal/epithermal/fast region aggregates.
package spectrum

import (
	"fmt"

	"fluxpost/internal/results"
)

// Normalization source labels, reported for provenance.
const (
	SourceTotSrcRate = "TOT_SRCRATE"
	SourceSrcMult    = "SRC_MULT"
	SourceStrength   = "source-strength"
)

// Norm is the resolved normalization factor converting tally score units to
// physical flux (n/cm2/s), together with its provenance and any diagnostics
// produced while resolving it.
type Norm struct {
	Factor   float64
	Source   string
	Warnings []string
}

// ResolveNorm derives the normalization factor from the result table and the
// configured absolute source strength (neutrons/second).
//
// Priority order, first available wins:
//  1. sourceStrength / TOT_SRCRATE[0] when the field exists and is non-zero
//  2. sourceStrength / SRC_MULT[0] when that field exists and is non-zero
//  3. sourceStrength itself
//
// ResolveNorm never fails and always returns a finite factor; every fallback
// step is recorded in Warnings so the caller can surface it.
func ResolveNorm(rt *results.ResultTable, sourceStrength float64) Norm {
	n := Norm{}

	if vals, ok := rt.Get(SourceTotSrcRate); ok && len(vals) > 0 {
		if len(vals) > 2 {
			n.warnf("%s holds %d elements; using the first and discarding the rest without consistency checks",
				SourceTotSrcRate, len(vals))
		}
		if vals[0] != 0 {
			n.Factor = sourceStrength / vals[0]
			n.Source = SourceTotSrcRate
			return n
		}
		n.warnf("%s present but zero; trying %s", SourceTotSrcRate, SourceSrcMult)
	} else {
		n.warnf("%s not found in result table; trying %s", SourceTotSrcRate, SourceSrcMult)
	}

	if vals, ok := rt.Get(SourceSrcMult); ok && len(vals) > 0 && vals[0] != 0 {
		if len(vals) > 2 {
			n.warnf("%s holds %d elements; using the first and discarding the rest without consistency checks",
				SourceSrcMult, len(vals))
		}
		n.Factor = sourceStrength / vals[0]
		n.Source = SourceSrcMult
		return n
	}

	n.warnf("no usable source-rate field; normalizing by source strength directly")
	n.Factor = sourceStrength
	n.Source = SourceStrength
	return n
}

func (n *Norm) warnf(format string, args ...any) {
	n.Warnings = append(n.Warnings, fmt.Sprintf(format, args...))
}
