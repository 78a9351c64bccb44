package results

import (
	"strings"
	"testing"
)

const sampleDet = `
DET1 = [
    1    1    1    1    1    1    1    1    1    1  3.02092E+05 0.00481
    2    2    1    1    1    1    1    1    1    1  5.11804E+05 0.00390
    3    3    1    1    1    1    1    1    1    1  1.26717E+06 0.00264
];

DET1E = [
 2.50000E-08 1.00000E-07 6.25000E-08
 1.00000E-07 1.00000E-06 5.50000E-07
 1.00000E-06 1.00000E-05 5.50000E-06
];
`

func TestLoadDetector(t *testing.T) {
	path := writeTemp(t, "run_det0.m", sampleDet)

	d, err := LoadDetector(path, "DET1")
	if err != nil {
		t.Fatalf("LoadDetector failed: %v", err)
	}
	if len(d.Bins) != 3 {
		t.Fatalf("got %d bins, want 3", len(d.Bins))
	}

	b := d.Bins[0]
	if b.Lower != 2.5e-08 || b.Upper != 1.0e-07 || b.Mid != 6.25e-08 {
		t.Errorf("bin 0 grid = (%v, %v, %v)", b.Lower, b.Upper, b.Mid)
	}
	if b.Score != 3.02092e+05 || b.RelErr != 0.00481 {
		t.Errorf("bin 0 tally = (%v, %v)", b.Score, b.RelErr)
	}

	for i := 1; i < len(d.Bins); i++ {
		if d.Bins[i].Mid <= d.Bins[i-1].Mid {
			t.Errorf("bins not energy-ascending at index %d", i)
		}
	}
}

func TestLoadDetector_MissingGrid(t *testing.T) {
	content := "DET9 = [\n 1 1 2.0 0.1\n];\n"
	path := writeTemp(t, "run_det0.m", content)

	_, err := LoadDetector(path, "DET9")
	if err == nil {
		t.Fatal("expected error for missing energy grid")
	}
	if !strings.Contains(err.Error(), "DET9E") {
		t.Errorf("error should name the missing grid, got: %v", err)
	}
}

func TestLoadDetector_UnknownName(t *testing.T) {
	path := writeTemp(t, "run_det0.m", sampleDet)
	if _, err := LoadDetector(path, "DET2"); err == nil {
		t.Fatal("expected error for unknown detector")
	}
}

func TestLoadDetector_RowMismatch(t *testing.T) {
	content := `
DET1 = [
 1 1 2.0 0.1
 2 2 3.0 0.2
];
DET1E = [
 0.1 0.2 0.15
];
`
	path := writeTemp(t, "run_det0.m", content)
	if _, err := LoadDetector(path, "DET1"); err == nil {
		t.Fatal("expected error for tally/grid row count mismatch")
	}
}

func TestDetectorNames(t *testing.T) {
	path := writeTemp(t, "run_det0.m", sampleDet)
	names, err := DetectorNames(path)
	if err != nil {
		t.Fatalf("DetectorNames failed: %v", err)
	}
	if len(names) != 1 || names[0] != "DET1" {
		t.Errorf("names = %v; want [DET1]", names)
	}
}

func TestDetectorEnergies(t *testing.T) {
	path := writeTemp(t, "run_det0.m", sampleDet)
	d, err := LoadDetector(path, "DET1")
	if err != nil {
		t.Fatalf("LoadDetector failed: %v", err)
	}
	es := d.Energies()
	if len(es) != 3 || es[1] != 5.5e-07 {
		t.Errorf("Energies() = %v", es)
	}
}
