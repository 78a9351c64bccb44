package spectrum

import (
	"math"
	"testing"

	"fluxpost/internal/results"
)

func table(fields map[string][]float64) *results.ResultTable {
	return results.NewResultTable(fields)
}

func TestResolveNorm_TotSrcRate(t *testing.T) {
	rt := table(map[string][]float64{
		"TOT_SRCRATE": {1.55728e+02, 0.02154},
		"SRC_MULT":    {9.99999e+09, 0.1},
	})

	n := ResolveNorm(rt, 1e17)
	if n.Source != SourceTotSrcRate {
		t.Fatalf("source = %s; want %s", n.Source, SourceTotSrcRate)
	}
	want := 1e17 / 1.55728e+02
	if n.Factor != want {
		t.Errorf("factor = %g; want %g", n.Factor, want)
	}
	if len(n.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", n.Warnings)
	}
}

func TestResolveNorm_SrcMultFallback(t *testing.T) {
	rt := table(map[string][]float64{
		"SRC_MULT": {155.728, 0.02154},
	})

	n := ResolveNorm(rt, 1e17)
	if n.Source != SourceSrcMult {
		t.Fatalf("source = %s; want %s", n.Source, SourceSrcMult)
	}
	want := 1e17 / 155.728
	if math.Abs(n.Factor-want)/want > 1e-12 {
		t.Errorf("factor = %g; want %g", n.Factor, want)
	}
	// Sanity against the hand-computed value.
	if math.Abs(n.Factor-6.4214e14)/6.4214e14 > 1e-4 {
		t.Errorf("factor = %g; want about 6.4214e14", n.Factor)
	}
	if len(n.Warnings) == 0 {
		t.Error("fallback to SRC_MULT must be observable via a warning")
	}
}

func TestResolveNorm_ZeroRateFallsThrough(t *testing.T) {
	rt := table(map[string][]float64{
		"TOT_SRCRATE": {0, 0},
		"SRC_MULT":    {2, 0.01},
	})

	n := ResolveNorm(rt, 10)
	if n.Source != SourceSrcMult || n.Factor != 5 {
		t.Errorf("got (%s, %g); want (%s, 5)", n.Source, n.Factor, SourceSrcMult)
	}
}

func TestResolveNorm_AllAbsent(t *testing.T) {
	n := ResolveNorm(table(nil), 1e17)
	if n.Source != SourceStrength {
		t.Fatalf("source = %s; want %s", n.Source, SourceStrength)
	}
	if n.Factor != 1e17 {
		t.Errorf("factor = %g; want 1e17", n.Factor)
	}
	if len(n.Warnings) == 0 {
		t.Error("expected a warning when no normalization field exists")
	}
}

func TestResolveNorm_ShapeWarning(t *testing.T) {
	rt := table(map[string][]float64{
		"TOT_SRCRATE": {100, 0.01, 200, 0.02},
	})

	n := ResolveNorm(rt, 1000)
	if n.Factor != 10 {
		t.Errorf("factor = %g; want 10 (first element wins)", n.Factor)
	}
	if len(n.Warnings) != 1 {
		t.Fatalf("warnings = %v; want exactly one shape warning", n.Warnings)
	}
}

func TestResolveNorm_AlwaysFinite(t *testing.T) {
	cases := []*results.ResultTable{
		table(nil),
		table(map[string][]float64{"TOT_SRCRATE": {0}}),
		table(map[string][]float64{"TOT_SRCRATE": {0}, "SRC_MULT": {0}}),
		table(map[string][]float64{"SRC_MULT": {}}),
	}
	for i, rt := range cases {
		n := ResolveNorm(rt, 1e17)
		if math.IsNaN(n.Factor) || math.IsInf(n.Factor, 0) {
			t.Errorf("case %d: non-finite factor %g", i, n.Factor)
		}
	}
}
